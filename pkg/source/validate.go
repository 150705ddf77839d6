package source

import (
	"fmt"
	"image"
)

// Document is an open host document.
type Document struct {
	Name  string
	Image image.Image
}

// Validation is the result of ValidateDocumentMode. Message is set when Valid is false.
type Validation struct {
	Valid   bool
	Message string
}

// ValidateDocumentMode checks that doc is 8 bits per channel RGB.
func ValidateDocumentMode(doc *Document) Validation {
	if doc == nil || doc.Image == nil {
		return Validation{Message: "no document is open"}
	}
	b := doc.Image.Bounds()
	if b.Empty() {
		return Validation{Message: fmt.Sprintf("%s has no pixels", doc.Name)}
	}
	switch doc.Image.(type) {
	case *image.NRGBA, *image.RGBA, *image.YCbCr, *image.NYCbCrA:
		return Validation{Valid: true}
	case *image.NRGBA64, *image.RGBA64:
		return Validation{Message: "16-bit documents are not supported, convert to 8 bits per channel"}
	case *image.Gray, *image.Gray16:
		return Validation{Message: "grayscale documents are not supported, convert to RGB color mode"}
	case *image.CMYK:
		return Validation{Message: "CMYK documents are not supported, convert to RGB color mode"}
	case *image.Paletted:
		return Validation{Message: "indexed color documents are not supported, convert to RGB color mode"}
	default:
		return Validation{Message: fmt.Sprintf("unsupported pixel layout %T", doc.Image)}
	}
}

// validationError turns a failed Validation into an ErrUnsupportedColorMode-wrapped error.
func validationError(v Validation) error {
	if v.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedColorMode, v.Message)
}
