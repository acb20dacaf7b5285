package gif

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// readGraphicControl parses a Graphic Control Extension body into gc.
// A second extension before the image it applies to is malformed.
func (d *Decoder) readGraphicControl(gc *graphicControl) error {
	if gc.pending {
		return fmt.Errorf("%w: graphic control extension not followed by an image", ErrMalformedBlock)
	}
	if err := d.expectBlockSize("graphic control extension", graphicControlSize); err != nil {
		return err
	}
	var body [graphicControlSize + 1]byte
	if err := d.br.readFull(body[:]); err != nil {
		return err
	}
	if body[graphicControlSize] != 0 {
		return fmt.Errorf("%w: graphic control extension has no block terminator", ErrMalformedBlock)
	}

	packed := body[0]
	disposal := Disposal(packed & gcDisposal >> 2)
	if disposal > DisposalPrevious {
		return fmt.Errorf("%w: reserved disposal method %d", ErrMalformedBlock, uint8(disposal))
	}
	gc.disposal = disposal
	gc.delayMS = 10 * (int(body[1]) | int(body[2])<<8)
	gc.transparent = -1
	if packed&gcTransparent != 0 {
		gc.transparent = int(body[3])
	}
	gc.pending = true
	return nil
}

// readApplication parses an Application Extension. The looping sub-block of
// the NETSCAPE2.0 (and ANIMEXTS1.0) extension sets the repeat count; other
// applications are skipped.
func (d *Decoder) readApplication() error {
	if err := d.expectBlockSize("application extension", applicationSize); err != nil {
		return err
	}
	id, err := d.br.readString(8)
	if err != nil {
		return err
	}
	auth, err := d.br.readString(3)
	if err != nil {
		return err
	}
	if !(id == "NETSCAPE" && auth == "2.0") && !(id == "ANIMEXTS" && auth == "1.0") {
		Logger().Debug("gif: skipping application extension", "id", id+auth)
		return d.br.skipSubBlocks()
	}

	var block [255]byte
	for {
		b, err := d.br.readSubBlock(&block)
		if err != nil {
			return err
		}
		if b == nil {
			return nil
		}
		// Sub-block 1 is the looping extension; 2 (buffering) is ignored.
		if len(b) >= 3 && b[0] == 1 {
			d.repeatCount = int(b[1]) | int(b[2])<<8
		}
	}
}

// readComment collects the text of a Comment Extension. Comments are 7-bit
// ASCII by definition; Latin-1 decoding keeps the common 8-bit variants
// readable.
func (d *Decoder) readComment() error {
	var (
		block [255]byte
		text  []byte
	)
	for {
		b, err := d.br.readSubBlock(&block)
		if err != nil {
			return err
		}
		if b == nil {
			break
		}
		text = append(text, b...)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(text)
	if err != nil {
		return fmt.Errorf("gif: decode comment: %w", err)
	}
	d.comments = append(d.comments, string(s))
	return nil
}

// skipPlainText skips a Plain Text Extension.
func (d *Decoder) skipPlainText() error {
	if err := d.expectBlockSize("plain text extension", plainTextSize); err != nil {
		return err
	}
	if err := d.br.skip(plainTextSize); err != nil {
		return err
	}
	return d.br.skipSubBlocks()
}

// skipApplication skips an Application Extension after checking its size.
func (d *Decoder) skipApplication() error {
	if err := d.expectBlockSize("application extension", applicationSize); err != nil {
		return err
	}
	if err := d.br.skip(applicationSize); err != nil {
		return err
	}
	return d.br.skipSubBlocks()
}

func (d *Decoder) expectBlockSize(name string, want int) error {
	n, err := d.br.ReadByte()
	if err != nil {
		return err
	}
	if int(n) != want {
		return fmt.Errorf("%w: %s has block size %d, want %d", ErrMalformedBlock, name, n, want)
	}
	return nil
}

// readExtension dispatches on the extension label that follows an
// extension introducer. While scanning, metadata (repeat count, comments)
// is collected; while drawing, those blocks are only skipped.
func (d *Decoder) readExtension(gc *graphicControl, scanning bool) error {
	label, err := d.br.ReadByte()
	if err != nil {
		return err
	}
	switch label {
	case extGraphicControl:
		return d.readGraphicControl(gc)
	case extPlainText:
		// A graphic control before plain text applies to the text.
		gc.reset()
		return d.skipPlainText()
	case extComment:
		if scanning {
			return d.readComment()
		}
		return d.br.skipSubBlocks()
	case extApplication:
		if scanning {
			return d.readApplication()
		}
		return d.skipApplication()
	default:
		Logger().Debug("gif: skipping unknown extension", "label", label)
		return d.br.skipSubBlocks()
	}
}
