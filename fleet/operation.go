package fleet

import (
	"bytes"
	"context"
	"fmt"

	"github.com/moffa90/go-gblive32/flasher"
	"github.com/moffa90/go-gblive32/protocol"
)

// Kind identifies what an Operation does once a device is unlocked.
type Kind int

const (
	// KindStatus reads the state flags
	KindStatus Kind = iota

	// KindUpload writes a ROM image and boots the target
	KindUpload
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindUpload:
		return "upload"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Operation is the work run on every target. The set of operations is
// closed: build one with StatusOperation or UploadOperation.
type Operation struct {
	kind  Kind
	image []byte
}

// StatusOperation reports each device's state flags.
func StatusOperation() Operation {
	return Operation{kind: KindStatus}
}

// UploadOperation writes image to each device. The image is copied per
// worker, so the caller may reuse it once Run returns.
func UploadOperation(image []byte) Operation {
	return Operation{kind: KindUpload, image: image}
}

// Kind returns the operation kind.
func (o Operation) Kind() Kind { return o.kind }

func (o Operation) String() string { return o.kind.String() }

// Validate checks the operation's input. An upload image that is not exactly
// protocol.ImageSize bytes fails with *flasher.ImageSizeError.
func (o Operation) Validate() error {
	if o.kind == KindUpload && len(o.image) != protocol.ImageSize {
		return &flasher.ImageSizeError{Size: len(o.image)}
	}
	return nil
}

// clone gives a worker its own copy of the image.
func (o Operation) clone() Operation {
	return Operation{kind: o.kind, image: bytes.Clone(o.image)}
}

// run executes the operation on an unlocked device and fills in res.
func (o Operation) run(ctx context.Context, f *flasher.Flasher, res *Result) error {
	switch o.kind {
	case KindStatus:
		st, err := f.Status(ctx)
		if err != nil {
			return err
		}
		res.Status = &st
		return nil
	case KindUpload:
		return f.Upload(ctx, o.image)
	default:
		return fmt.Errorf("unknown operation %s", o)
	}
}
