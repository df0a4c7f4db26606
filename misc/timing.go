// Calculates:
// On-air duration of one frame and of a full five-copy transmission.
// Effective bit rate of the AOK-5055's OOK PWM framing.
// Minimum capture window that still holds a given number of copies.

package main

import "fmt"

const (
	// Pulse widths in microseconds, measured off the station.
	ShortWidth = 490
	LongWidth  = 966
	ResetLimit = 7000

	FrameBits = 96
	Repeats   = 5
)

func main() {
	avgBit := float64(ShortWidth+LongWidth) / 2

	frameUs := avgBit * FrameBits
	fmt.Printf("AvgBit:%.0fus FrameBits:%d Frame:%.2fms BitRate:%.0fbit/s\n",
		avgBit, FrameBits, frameUs/1e3, 1e6/avgBit)

	for copies := 1; copies <= Repeats; copies++ {
		total := frameUs*float64(copies) + ResetLimit
		fmt.Printf("Copies:%d Window:%.2fms\n", copies, total/1e3)
	}
}
