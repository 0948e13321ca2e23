package netdev_test

import (
	"github.com/usnistgov/netifc/core/testenv"
)

var makeAR = testenv.MakeAR
