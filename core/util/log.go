package util

import (
	"fmt"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("util")

func assert(ok bool) {
	if !ok {
		panic("assert fail")
	}
}

func assert2(ok bool, msg string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(msg, args...))
	}
}
