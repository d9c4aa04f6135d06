package billing

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/malipo/core"
)

var (
	invoiceStatusTag     = "invoicestatus"
	invoiceStatusChoices = "must be one of: Pending, Partially Paid, Paid, Overdue"
	invoiceStatusText    = "{0} " + invoiceStatusChoices

	feeStatusTag  = "feestatus"
	feeStatusText = "{0} must be one of: Paid, Pending"
)

// InitValidators registers the billing validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(invoiceStatusTag, invoiceStatusValidation)
	core.RegisterCustomTranslation(validate, translator, invoiceStatusTag, invoiceStatusText)

	_ = validate.RegisterValidation(feeStatusTag, feeStatusValidation)
	core.RegisterCustomTranslation(validate, translator, feeStatusTag, feeStatusText)
}

// invoiceStatusValidation checks the field holds one of Statuses, "Partially Paid" included.
func invoiceStatusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).IsValid()
}

func feeStatusValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case FeeStatusPaid, FeeStatusPending:
		return true
	}
	return false
}
