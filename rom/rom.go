package rom

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/moffa90/go-gblive32/protocol"
)

var (
	// ErrTooSmall is returned for an image shorter than protocol.ImageSize.
	ErrTooSmall = fmt.Errorf("ROM file is smaller than %d bytes", protocol.ImageSize)

	// ErrTooLarge is returned for an image longer than protocol.ImageSize.
	ErrTooLarge = fmt.Errorf("ROM file is larger than %d bytes", protocol.ImageSize)
)

// Load reads a ROM image from the given file path.
//
// Example:
//
//	img, err := rom.Load("game.gb")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Read reads exactly protocol.ImageSize bytes from r and checks that
// nothing follows them.
func Read(r io.Reader) ([]byte, error) {
	img := make([]byte, protocol.ImageSize)
	if _, err := io.ReadFull(r, img); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTooSmall
		}
		return nil, fmt.Errorf("failed to read ROM: %w", err)
	}

	var extra [1]byte
	n, err := io.ReadFull(r, extra[:])
	if n > 0 {
		return nil, ErrTooLarge
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read ROM: %w", err)
	}
	return img, nil
}
