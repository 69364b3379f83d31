package tgl

import "github.com/sirupsen/logrus"

//HandleError panics on errors that indicate a programming mistake rather than bad input.
func HandleError(err error) {
	if err != nil {
		logrus.WithError(err).Panic("unexpected error")
	}
}
