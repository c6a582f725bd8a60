package event

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
)

var (
	sessionOrderTag  = "endafterstart"
	sessionOrderText = "session must end after it starts"

	imageTypeTag  = "imagetype"
	imageTypeText = "image must be a PNG, JPEG or GIF file"

	imageSizeTag  = "imagesize"
	imageSizeText = "image must be smaller than 5 MiB"

	// MaxImageSize is the largest picture accepted along a NewEvent.
	MaxImageSize int64 = 5 << 20

	imageTypes = map[string]bool{"image/png": true, "image/jpeg": true, "image/gif": true}
)

// InitValidators registers the event validators; core.InitValidators must run first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(sessionStructValidation, Session{})
	core.RegisterCustomTranslation(validate, translator, sessionOrderTag, sessionOrderText)
	core.RegisterCustomTranslation(validate, translator, imageTypeTag, imageTypeText)
	core.RegisterCustomTranslation(validate, translator, imageSizeTag, imageSizeText)
}

func sessionStructValidation(sl validator.StructLevel) {
	s := sl.Current().Interface().(Session)
	// HH:MM compares lexically; malformed values are reported by their field tags
	if s.StartTime != "" && s.EndTime != "" && s.EndTime <= s.StartTime {
		sl.ReportError(s.EndTime, "end_time", "EndTime", sessionOrderTag, "")
	}
}

func validateImage(img *Image) []core.FieldError {
	if img == nil {
		return nil
	}
	var flds []core.FieldError
	if !imageTypes[img.ContentType] {
		flds = append(flds, core.FieldError{Field: "image", Error: imageTypeText})
	}
	if img.Size > MaxImageSize {
		flds = append(flds, core.FieldError{Field: "image", Error: imageSizeText})
	}
	return flds
}
