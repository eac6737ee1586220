//go:build tinygo

package main

import (
	"tdeckvt/app"
	"tdeckvt/hal"
)

func main() {
	app.Run(hal.New())
}
