// Package clipboard copies rendered trees to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/temirov/fsviz/internal/utils"
)

// ErrUnavailable is returned when no clipboard utility is present on the system.
var ErrUnavailable = errors.New("system clipboard is unavailable")

const errorCopyFormat = "copying to clipboard: %w"

// Copier copies textual data to a clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct {
	unsupported func() bool
	writeAll    func(string) error
}

// NewService constructs a Service backed by the system clipboard.
func NewService() *Service {
	return &Service{
		unsupported: func() bool { return clipboard.Unsupported },
		writeAll:    clipboard.WriteAll,
	}
}

// Copy writes text to the clipboard with any terminal decoration removed.
func (service *Service) Copy(text string) error {
	if service.unsupported() {
		return ErrUnavailable
	}
	if writeError := service.writeAll(utils.StripDecoration(text)); writeError != nil {
		return fmt.Errorf(errorCopyFormat, writeError)
	}
	return nil
}

var _ Copier = (*Service)(nil)
