package main

import (
	"github.com/danyaljj/nlpstack/nlpstack-golib/cmdline"
)

func main() {
	cmdline.MustDispatch(trainCmd, classifyCmd, inspectCmd)
}
