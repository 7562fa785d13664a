package gazette

// Column positions of a record row in the external store.
const (
	ColumnPublishedDate = iota
	ColumnTitle
	ColumnPublicationNumber
	ColumnLocation
	ColumnApplicantAddress
	ColumnSourceURL
	ColumnDocumentURL
	ColumnFingerprint
	columnCount
)

// RowHeader names the columns in store order.
var RowHeader = []string{
	"published_at",
	"titel",
	"publikations_nummer",
	"gemeinde",
	"gesuchsteller_adresse",
	"source_url",
	"document_url",
	"fingerprint",
}

// ToRow maps a record to the store's fixed column order, with the fingerprint
// as trailing column.
func ToRow(rec DetailRecord, fingerprint string) []string {
	row := make([]string, columnCount)
	row[ColumnPublishedDate] = rec.PublishedDate
	row[ColumnTitle] = rec.Title
	row[ColumnPublicationNumber] = rec.PublicationNumber
	row[ColumnLocation] = rec.Location
	row[ColumnApplicantAddress] = rec.ApplicantAddress
	row[ColumnSourceURL] = rec.SourceURL
	row[ColumnDocumentURL] = rec.DocumentURL
	row[ColumnFingerprint] = fingerprint
	return row
}

// FromRow rebuilds a record from a stored row. Short rows yield empty fields.
func FromRow(row []string) DetailRecord {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return DetailRecord{
		PublishedDate:     get(ColumnPublishedDate),
		Title:             get(ColumnTitle),
		PublicationNumber: get(ColumnPublicationNumber),
		Location:          get(ColumnLocation),
		ApplicantAddress:  get(ColumnApplicantAddress),
		SourceURL:         get(ColumnSourceURL),
		DocumentURL:       get(ColumnDocumentURL),
	}
}
