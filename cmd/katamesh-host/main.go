// Command katamesh-host serves worker contexts for remote handles.
package main

import "os"

func main() {
    os.Exit(run(ParseFlags(os.Args[1:])))
}
