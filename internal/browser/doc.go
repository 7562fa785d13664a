// Package browser implements gazette.Browser on top of headless Chrome
// (chromedp) and, for listings that paginate with plain links, on top of a
// colly collector without JavaScript.
package browser
