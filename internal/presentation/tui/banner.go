package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs an ASCII art banner for arbor.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Subtle gradient from teal to violet.
	s1 := termenv.String("             _                ").Foreground(p.Color("#2dd4bf"))
	s2 := termenv.String("   __ _ _ __| |__   ___  _ __ ").Foreground(p.Color("#38bdf8"))
	s3 := termenv.String("  / _` | '__| '_ \\ / _ \\| '__|").Foreground(p.Color("#818cf8"))
	s4 := termenv.String(" | (_| | |  | |_) | (_) | |   ").Foreground(p.Color("#a78bfa"))
	s5 := termenv.String("  \\__,_|_|  |_.__/ \\___/|_|   ").Foreground(p.Color("#c084fc"))
	ver := termenv.String("  " + version).Foreground(p.Color("#64748b"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(ver)
	fmt.Println()
}
