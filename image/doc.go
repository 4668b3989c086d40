// Package image loads, writes and programs Intel HEX firmware images.
//
// # Images
//
// An Image is a set of byte segments at absolute flash addresses. Parse and
// ParseReader read Intel HEX, and Dump writes it back:
//
//	img, err := image.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes in %d segments\n", img.Size(), len(img.Segments))
//
// Blocks groups the segments into runs of whole 32-bit words, padding
// partial words with 0xFF so padding never clears a programmed bit.
//
// # Programming
//
// A Programmer writes an image through a Target, normally a *flash.Engine:
//
//	prog := image.NewProgrammer(eng,
//	    image.WithProgressCallback(func(p image.Progress) {
//	        fmt.Printf("[%s] %.1f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
//	if err := prog.Program(ctx, img); err != nil {
//	    log.Fatal(err)
//	}
//
// Program erases every sector the image touches, programs the words with
// burst writes where the address allows it, and reads everything back.
package image
