package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if err := newRootCommand().Execute(); err != nil {
		logrus.WithError(err).Error("aspect failed")
		os.Exit(1)
	}
}
