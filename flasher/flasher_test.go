package flasher

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/moffa90/go-gblive32/device"
	"github.com/moffa90/go-gblive32/protocol"
	"github.com/moffa90/go-gblive32/simulator"
)

// MockLogger records log messages for assertions
type MockLogger struct {
	infoMsgs []string
}

func (l *MockLogger) Debugf(format string, args ...interface{}) {}

func (l *MockLogger) Infof(format string, args ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, format)
}

func (l *MockLogger) Warnf(format string, args ...interface{}) {}

func (l *MockLogger) Errorf(format string, args ...interface{}) {}

// stubDevice records calls and fails the named step
type stubDevice struct {
	status  protocol.Status
	version protocol.Version
	calls   []string
	failOn  string
	err     error
	written []byte
}

func (d *stubDevice) step(name string) error {
	d.calls = append(d.calls, name)
	if name == d.failOn {
		return d.err
	}
	return nil
}

func (d *stubDevice) GetVersion() (protocol.Version, error) {
	return d.version, d.step("version")
}

func (d *stubDevice) GetStatus() (protocol.Status, error) {
	return d.status, d.step("status")
}

func (d *stubDevice) SetUnlocked(v bool) error {
	if err := d.step("unlocked"); err != nil {
		return err
	}
	d.status.Unlocked = v
	return nil
}

func (d *stubDevice) SetPassthrough(v bool) error {
	if err := d.step("passthrough"); err != nil {
		return err
	}
	d.status.Passthrough = v
	return nil
}

func (d *stubDevice) SetReset(v bool) error {
	if err := d.step("reset"); err != nil {
		return err
	}
	d.status.Reset = v
	return nil
}

func (d *stubDevice) WriteAll(image []byte) error {
	if err := d.step("write-all"); err != nil {
		return err
	}
	d.written = append([]byte(nil), image...)
	return nil
}

func (d *stubDevice) ReadAll() ([]byte, error) {
	return d.written, d.step("read-all")
}

func openSim(t *testing.T, sim *simulator.Device) *device.Session {
	t.Helper()
	sess, err := device.Open(sim)
	if err != nil {
		t.Fatalf("device.Open() error = %v", err)
	}
	return sess
}

func testImage() []byte {
	image := make([]byte, protocol.ImageSize)
	for i := range image {
		image[i] = byte(i*7 + 3)
	}
	return image
}

func TestNewNilDevice(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(nil) did not panic")
		}
	}()
	New(nil)
}

func TestEnsureUnlocked(t *testing.T) {
	sim := simulator.New()
	logger := &MockLogger{}
	var phases []string
	f := New(openSim(t, sim),
		WithLogger(logger),
		WithName("sim0"),
		WithProgressCallback(func(p Progress) {
			phases = append(phases, p.Phase)
		}),
	)

	if err := f.EnsureUnlocked(context.Background()); err != nil {
		t.Fatalf("EnsureUnlocked() error = %v", err)
	}

	st := sim.State()
	if !st.Unlocked {
		t.Error("device not unlocked")
	}
	if st.Passthrough {
		t.Error("passthrough left enabled after self-test")
	}
	if len(logger.infoMsgs) == 0 {
		t.Error("expected info log")
	}
	want := []string{PhaseUnlocking, PhaseSelfTest, PhaseSelfTest, PhaseComplete}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase[%d] = %q, want %q", i, phases[i], want[i])
		}
	}
}

func TestEnsureUnlockedAlreadyUnlocked(t *testing.T) {
	sim := simulator.New(simulator.WithStatus(protocol.Status{Unlocked: true, Passthrough: true}))
	f := New(openSim(t, sim))
	before := len(sim.Commands())

	if err := f.EnsureUnlocked(context.Background()); err != nil {
		t.Fatalf("EnsureUnlocked() error = %v", err)
	}

	cmds := sim.Commands()[before:]
	if !bytes.Equal(cmds, []byte{protocol.OpGetStatus}) {
		t.Errorf("commands = % x, want only get status", cmds)
	}
	if !sim.State().Passthrough {
		t.Error("passthrough changed on an unlocked device")
	}
}

func TestEnsureUnlockedSelfTestMismatch(t *testing.T) {
	tests := []struct {
		name  string
		index int
	}{
		{"first byte", 0},
		{"middle", 12345},
		{"last byte", protocol.ImageSize - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := simulator.New(simulator.WithFlippedByte(tt.index))
			f := New(openSim(t, sim))

			err := f.EnsureUnlocked(context.Background())
			var ste *SelfTestError
			if !errors.As(err, &ste) {
				t.Fatalf("error = %v, want *SelfTestError", err)
			}
			if ste.Index != tt.index {
				t.Errorf("Index = %d, want %d", ste.Index, tt.index)
			}
			if ste.Read != ste.Wrote^0xFF {
				t.Errorf("Read = 0x%02X, want 0x%02X", ste.Read, ste.Wrote^0xFF)
			}
		})
	}
}

func TestEnsureUnlockedStillLocked(t *testing.T) {
	sim := simulator.New(simulator.WithIgnoredUnlock())
	f := New(openSim(t, sim))

	err := f.EnsureUnlocked(context.Background())
	if err == nil {
		t.Fatal("EnsureUnlocked() succeeded on a device that stays locked")
	}
	// The locked firmware refuses the bulk write before the final status check
	var pe *protocol.ProtocolError
	if !errors.As(err, &pe) || !pe.Remote {
		t.Fatalf("error = %v, want remote *protocol.ProtocolError", err)
	}
	if pe.Detail != "Locked: rx stream not allowed" {
		t.Errorf("Detail = %q", pe.Detail)
	}
}

func TestEnsureUnlockedFinalStatusLocked(t *testing.T) {
	dev := &stubDevice{}
	f := New(&lockedAfterSelfTest{stubDevice: dev})

	err := f.EnsureUnlocked(context.Background())
	var ue *UnlockError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want *UnlockError", err)
	}
	if err.Error() != "failed to unlock device" {
		t.Errorf("Error() = %q", err.Error())
	}
}

// lockedAfterSelfTest passes the self-test but never reports unlocked
type lockedAfterSelfTest struct {
	*stubDevice
}

func (d *lockedAfterSelfTest) SetUnlocked(bool) error {
	return d.step("unlocked")
}

func TestEnsureUnlockedStepErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		step string
		want string
	}{
		{"status", "get status: boom"},
		{"passthrough", "disable passthrough: boom"},
		{"unlocked", "set unlocked: boom"},
		{"write-all", "self-test write: boom"},
		{"read-all", "self-test read: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			dev := &stubDevice{failOn: tt.step, err: boom}
			err := New(dev).EnsureUnlocked(context.Background())
			if !errors.Is(err, boom) {
				t.Fatalf("error = %v, want wrapped boom", err)
			}
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestEnsureUnlockedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dev := &stubDevice{}
	err := New(dev).EnsureUnlocked(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(dev.calls) != 0 {
		t.Errorf("calls = %v, want none", dev.calls)
	}
}

func TestUpload(t *testing.T) {
	sim := simulator.New()
	sess := openSim(t, sim)
	f := New(sess)
	ctx := context.Background()

	if err := f.EnsureUnlocked(ctx); err != nil {
		t.Fatalf("EnsureUnlocked() error = %v", err)
	}
	before := len(sim.Commands())

	image := testImage()
	if err := f.Upload(ctx, image); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	want := []byte{
		protocol.OpSetReset,
		protocol.OpSetPassthrough,
		protocol.OpWriteAll,
		protocol.OpSetPassthrough,
		protocol.OpSetReset,
	}
	if cmds := sim.Commands()[before:]; !bytes.Equal(cmds, want) {
		t.Errorf("commands = % x, want % x", cmds, want)
	}
	if !bytes.Equal(sim.Memory(), image) {
		t.Error("device memory does not match uploaded image")
	}
	st := sim.State()
	if !st.Passthrough || st.Reset || !st.Unlocked {
		t.Errorf("final state = %s, want unlocked with passthrough and no reset", st)
	}
}

func TestUploadStateFlagsBetweenSteps(t *testing.T) {
	dev := &stubDevice{status: protocol.Status{Unlocked: true, Passthrough: true}}
	if err := New(dev).Upload(context.Background(), testImage()); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	want := []string{"reset", "passthrough", "write-all", "passthrough", "reset"}
	if len(dev.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", dev.calls, want)
	}
	for i := range want {
		if dev.calls[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, dev.calls[i], want[i])
		}
	}
}

func TestUploadImageSize(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"one short", protocol.ImageSize - 1},
		{"one long", protocol.ImageSize + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := simulator.New(simulator.WithStatus(protocol.Status{Unlocked: true}))
			f := New(openSim(t, sim))
			before := len(sim.Commands())

			err := f.Upload(context.Background(), make([]byte, tt.size))
			var ise *ImageSizeError
			if !errors.As(err, &ise) {
				t.Fatalf("error = %v, want *ImageSizeError", err)
			}
			if ise.Size != tt.size {
				t.Errorf("Size = %d, want %d", ise.Size, tt.size)
			}
			if n := len(sim.Commands()) - before; n != 0 {
				t.Errorf("%d commands sent, want 0", n)
			}
		})
	}
}

func TestUploadLockedDevice(t *testing.T) {
	sim := simulator.New()
	f := New(openSim(t, sim))

	err := f.Upload(context.Background(), testImage())
	var pe *protocol.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *protocol.ProtocolError", err)
	}
	if pe.Detail != "Locked: rx stream not allowed" {
		t.Errorf("Detail = %q", pe.Detail)
	}
}

func TestUploadStepErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		step string
		want string
	}{
		{"reset", "assert reset: boom"},
		{"passthrough", "disable passthrough: boom"},
		{"write-all", "write ROM: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			dev := &stubDevice{failOn: tt.step, err: boom}
			err := New(dev).Upload(context.Background(), testImage())
			if err == nil || err.Error() != tt.want {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		name    string
		major   byte
		minor   byte
		opts    []Option
		wantErr bool
	}{
		{"v2.0", 2, 0, nil, false},
		{"v2.1", 2, 1, nil, false},
		{"v1.9 rejected", 1, 9, nil, true},
		{"v3.0 rejected", 3, 0, nil, true},
		{"custom list", 3, 0, []Option{WithSupportedVersions(protocol.Version{Major: 3})}, false},
		{"empty list accepts any", 9, 9, []Option{WithSupportedVersions()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := simulator.New(simulator.WithVersion(tt.major, tt.minor))
			f := New(openSim(t, sim), tt.opts...)

			v, err := f.CheckVersion(context.Background())
			if v != (protocol.Version{Major: tt.major, Minor: tt.minor}) {
				t.Errorf("version = %s", v)
			}
			var uve *UnsupportedVersionError
			if got := errors.As(err, &uve); got != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	want := protocol.Status{Unlocked: true, Reset: true}
	sim := simulator.New(simulator.WithStatus(want))
	f := New(openSim(t, sim))

	got, err := f.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if got != want {
		t.Errorf("Status() = %s, want %s", got, want)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&SelfTestError{Index: 5, Wrote: 0xAB, Read: 0x54}, "self-test failed at index 5: wrote 0xAB, read 0x54"},
		{&ImageSizeError{Size: 100}, "ROM image must be exactly 32768 bytes, got 100"},
		{&UnsupportedVersionError{Version: protocol.Version{Major: 1, Minor: 2}}, "unsupported firmware version v1.2"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
