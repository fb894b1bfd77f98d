package sink

import "testing"

func TestSerialConfigApplyDefaults(t *testing.T) {
	var c SerialConfig
	c.ApplyDefaults()
	if c.Device == "" {
		t.Fatalf("expected a default device path")
	}
	if c.BaudRate != 115200 {
		t.Fatalf("BaudRate = %d, want 115200", c.BaudRate)
	}
}

func TestSerialConfigValidateRejectsEmptyDevice(t *testing.T) {
	c := SerialConfig{Device: "", BaudRate: 9600}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected an error for an empty device path")
	}
}

func TestTermiosBaudConstKnownRates(t *testing.T) {
	for _, baud := range []uint32{9600, 19200, 38400, 57600, 115200, 230400} {
		if _, ok := termiosBaudConst(baud); !ok {
			t.Fatalf("expected baud %d to be supported", baud)
		}
	}
}

func TestTermiosBaudConstRejectsUnknownRate(t *testing.T) {
	if _, ok := termiosBaudConst(1234567); ok {
		t.Fatalf("expected an unsupported baud rate to be rejected")
	}
}
