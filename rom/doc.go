// Package rom loads Game Boy ROM images for upload to a GB-LIVE32
// cartridge and decodes their cartridge header.
//
// The cartridge emulates a 32 KiB ROM with no bank switching, so every
// image must be exactly protocol.ImageSize bytes.
//
// # Basic Usage
//
//	img, err := rom.Load("tetris.gb")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if h, err := rom.ParseHeader(img); err == nil {
//	    fmt.Printf("%s (%s)\n", h.Title, h.CartridgeTypeName())
//	}
package rom
