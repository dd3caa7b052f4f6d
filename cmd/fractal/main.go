// Command fractal is an interactive GPU fractal explorer. Run it with
// no arguments for a window, or use the snapshot subcommand to render
// to a PNG without a display.
package main

func main() {
	Execute()
}
