package browser

import (
	"encoding/json"
	"fmt"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

const clickTemplate = `(() => {
	const selector = %s;
	const text = %s.toLowerCase();
	for (const el of document.querySelectorAll(selector)) {
		const label = (el.innerText || el.textContent || '').toLowerCase();
		if (text && !label.includes(text)) continue;
		if (el.disabled || el.getAttribute('aria-disabled') === 'true') continue;
		el.scrollIntoView({block: 'center'});
		el.click();
		return true;
	}
	return false;
})()`

const scrollBottomScript = `(() => {
	if (!document.body) return false;
	window.scrollTo(0, document.body.scrollHeight);
	return true;
})()`

const scrollNudgeScript = `window.scrollBy(0, 800)`

const heightScript = `document.body ? document.body.scrollHeight : 0`

// clickScript returns the expression that clicks the first element matching c.
func clickScript(c gazette.Control) (string, error) {
	sel, err := json.Marshal(c.Selector)
	if err != nil {
		return "", fmt.Errorf("encode selector: %w", err)
	}
	text, err := json.Marshal(c.Text)
	if err != nil {
		return "", fmt.Errorf("encode text: %w", err)
	}
	return fmt.Sprintf(clickTemplate, sel, text), nil
}
