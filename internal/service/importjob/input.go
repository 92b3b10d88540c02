package importjob

import (
	"github.com/google/uuid"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
)

// TriggerInput holds the parameters for starting an import job.
type TriggerInput struct {
	FileID  uuid.UUID
	Format  domain.ImportFormat
	Mapping *domain.CsvMapping
	Style   domain.NotationStyle
	Dedupe  bool
	Replace bool
}

// Validate checks the input shape and collects all errors. A csv job
// without a mapping passes here and fails when it runs.
func (i TriggerInput) Validate() error {
	var errs []domain.FieldError

	if i.FileID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "file_id", Message: "required"})
	}
	if !i.Format.IsValid() {
		errs = append(errs, domain.FieldError{Field: "file_type", Message: "must be lexicon or csv"})
	}
	if !i.Style.IsValid() {
		errs = append(errs, domain.FieldError{Field: "pinyin_style", Message: "must be numbers, diacritics or none"})
	}
	if i.Mapping != nil && i.Format == domain.ImportFormatCSV {
		if err := i.Mapping.Validate(); err != nil {
			errs = append(errs, domain.FieldError{Field: "csv_mapping.simplified", Message: "required"})
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
