package ocr

import (
	"errors"
	"fmt"

	"medintake/internal/domain"
)

// DominantPageError selects the error to surface when every page of a
// document failed. A timed-out page wins over transport failures so the
// caller sees the kind that explains the outcome; otherwise the first
// classified error is returned, and unclassified parse errors are wrapped as
// transport failures.
func DominantPageError(errs []error) error {
	for _, err := range errs {
		if errors.Is(err, domain.ErrProviderTimeout) {
			return err
		}
	}
	for _, err := range errs {
		if errors.Is(err, domain.ErrProviderTransport) {
			return err
		}
	}
	if len(errs) == 0 {
		return domain.ErrProviderTransport
	}
	return fmt.Errorf("%w: %v", domain.ErrProviderTransport, errs[0])
}
