// Command katamesh-run starts one script by capability path and prints the
// messages it sends.
package main

import "os"

func main() {
    os.Exit(run(ParseFlags(os.Args[1:]), os.Stdout, os.Stderr))
}
