package main

import (
	"os"

	"github.com/golang/glog"
)

const versionString = "sssu 1.0.0"

func main() {
	defer glog.Flush()
	os.Exit(RunCLI(os.Args[1:]))
}
