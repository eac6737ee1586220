//go:build tinygo && baremetal

package hal

import (
	"errors"
	"fmt"
	"machine"
	"sync"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/st7789"
)

// LilyGO T-Deck wiring.
const (
	pinPowerOn   = machine.Pin(10)
	pinI2CSDA    = machine.Pin(18)
	pinI2CSCL    = machine.Pin(8)
	pinBallUp    = machine.Pin(3)
	pinBallDown  = machine.Pin(15)
	pinBallLeft  = machine.Pin(1)
	pinBallRight = machine.Pin(2)
	pinBallClick = machine.Pin(0)
	pinBattery   = machine.Pin(4)
	pinTFTSCK    = machine.Pin(40)
	pinTFTSDO    = machine.Pin(41)
	pinTFTSDI    = machine.Pin(38)
	pinTFTCS     = machine.Pin(12)
	pinTFTDC     = machine.Pin(11)
	pinTFTBL     = machine.Pin(42)

	tdeckKbdAddr uint16 = 0x55
)

type tdeckHAL struct {
	logger  *serialLogger
	display Display
	kbd     *machineBus
	ball    Trackball
	button  *Button
	battery Battery
	serial  Serial
}

// New returns the T-Deck HAL. The console is USB serial; peripherals that
// fail to come up are reported on it and left out.
func New() HAL {
	pinPowerOn.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinPowerOn.High()
	// Peripherals need a moment after the rail comes up.
	time.Sleep(100 * time.Millisecond)

	h := &tdeckHAL{
		logger: &serialLogger{s: machine.Serial},
		serial: &machineSerial{s: machine.Serial},
		ball:   NewTrackball(DefaultPulseDepth),
		button: &Button{},
	}

	kbd, err := initKeyboardBus()
	if err != nil {
		h.logger.WriteLineString("keyboard: " + err.Error())
	}
	h.kbd = kbd

	pulseInput(pinBallUp, h.ball.Up)
	pulseInput(pinBallDown, h.ball.Down)
	pulseInput(pinBallLeft, h.ball.Left)
	pulseInput(pinBallRight, h.ball.Right)

	btn := h.button
	pinBallClick.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pinBallClick.SetInterrupt(machine.PinToggle, func(p machine.Pin) {
		if p.Get() {
			btn.Release()
		} else {
			btn.Press()
		}
	})

	if d, err := initDisplay(); err != nil {
		h.logger.WriteLineString("display: " + err.Error())
	} else {
		h.display = d
	}
	h.battery = newADCBattery(pinBattery)
	return h
}

func (h *tdeckHAL) Logger() Logger       { return h.logger }
func (h *tdeckHAL) Keyboard() Bus        { return h.kbd }
func (h *tdeckHAL) Trackball() Trackball { return h.ball }
func (h *tdeckHAL) Button() *Button      { return h.button }
func (h *tdeckHAL) Battery() Battery     { return h.battery }
func (h *tdeckHAL) Serial() Serial       { return h.serial }

func (h *tdeckHAL) Display() Display {
	if h.display == nil {
		return nil
	}
	return h.display
}

// initKeyboardBus brings up I2C0 and waits for the keyboard controller,
// which is slow to answer right after power-on.
func initKeyboardBus() (*machineBus, error) {
	bus := machine.I2C0
	if err := bus.Configure(machine.I2CConfig{
		SDA:       pinI2CSDA,
		SCL:       pinI2CSCL,
		Frequency: 100_000,
	}); err != nil {
		return &machineBus{i2c: bus}, fmt.Errorf("configure i2c: %w", err)
	}

	b := &machineBus{i2c: bus}
	var probe [1]byte
	const probeTries = 50
	for i := 0; i < probeTries; i++ {
		if err := bus.Tx(tdeckKbdAddr, nil, probe[:]); err == nil {
			return b, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return b, errors.New("controller not answering at 0x55")
}

type tdeckDisplay struct {
	lcd   *st7789.Device
	light *pulseBacklight
}

func (d *tdeckDisplay) Canvas() Canvas       { return d.lcd }
func (d *tdeckDisplay) Backlight() Backlight { return d.light }

func initDisplay() (*tdeckDisplay, error) {
	spi := machine.SPI0
	if err := spi.Configure(machine.SPIConfig{
		SCK:       pinTFTSCK,
		SDO:       pinTFTSDO,
		SDI:       pinTFTSDI,
		Frequency: 40_000_000,
	}); err != nil {
		return nil, fmt.Errorf("configure spi: %w", err)
	}

	lcd := st7789.New(spi, machine.NoPin, pinTFTDC, pinTFTCS, machine.NoPin)
	lcd.Configure(st7789.Config{
		Width:    240,
		Height:   320,
		Rotation: drivers.Rotation90,
	})

	light := &pulseBacklight{pin: pinTFTBL}
	light.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	light.SetBrightness(1)
	return &tdeckDisplay{lcd: &lcd, light: light}, nil
}

// backlightSteps is the number of levels of the panel's backlight driver,
// which steps down one level per low pulse on its enable pin.
const backlightSteps = 16

type pulseBacklight struct {
	mu    sync.Mutex
	pin   machine.Pin
	level float64
	step  int
}

func (b *pulseBacklight) Brightness() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level
}

func (b *pulseBacklight) SetBrightness(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.level = clampLevel(v)
	want := int(b.level*backlightSteps + 0.5)
	if want == b.step {
		return
	}
	if want == 0 {
		b.pin.Low()
		b.step = 0
		time.Sleep(3 * time.Millisecond)
		return
	}
	if b.step == 0 {
		b.pin.High()
		b.step = backlightSteps
		time.Sleep(50 * time.Microsecond)
	}
	pulses := (backlightSteps - want + b.step) % backlightSteps
	for i := 0; i < pulses; i++ {
		b.pin.Low()
		b.pin.High()
	}
	b.step = want
}

// Cell voltage is halved by a divider in front of the ADC.
const adcRefVolts = 3.3

type adcBattery struct {
	adc machine.ADC
}

func newADCBattery(pin machine.Pin) *adcBattery {
	machine.InitADC()
	adc := machine.ADC{Pin: pin}
	adc.Configure(machine.ADCConfig{})
	return &adcBattery{adc: adc}
}

func (b *adcBattery) Voltage() (float64, error) {
	raw := b.adc.Get()
	if raw == 0 {
		return 0, errors.New("battery: no reading")
	}
	return float64(raw) / 65535 * adcRefVolts * 2, nil
}

func (b *adcBattery) Percentage() int {
	v, err := b.Voltage()
	if err != nil {
		return 0
	}
	return PercentFromVolts(v)
}
