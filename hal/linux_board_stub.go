//go:build !linux && !tinygo

package hal

import (
	"errors"
	"fmt"
)

var errNoBoard = errors.New("gpio board requires linux")

// OpenI2C is only available on Linux.
func OpenI2C(name string) (Bus, func() error, error) {
	return nil, nil, fmt.Errorf("open i2c %q: %w", name, errNoBoard)
}

func openBoard(HostConfig) (*gpioBoard, error) {
	return nil, errNoBoard
}
