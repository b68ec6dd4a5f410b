package lucene29

import (
	"fmt"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("lucene29")

func assert(ok bool) {
	assert2(ok, "assert fail")
}

func assert2(ok bool, msg string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(msg, args...))
	}
}
