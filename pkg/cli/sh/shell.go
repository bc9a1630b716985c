// Package sh provides the interactive shell of the chain master, the device
// which originates probes and DATA frames at one end of the chain.
package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/chain.go/pkg/config"
	fx "github.com/robotalks/chain.go/pkg/framework"
	"github.com/robotalks/chain.go/pkg/l0/exchanger"
	"github.com/robotalks/chain.go/pkg/l0/frame"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	// Wait is how long to collect answers after a probe or a DATA frame.
	Wait time.Duration

	Shell     *ishell.Shell
	Config    *config.Config
	Exchanger *exchanger.Exchanger
	Directory *exchanger.Directory

	replies chan frame.Frame
	cancel  func()
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool
	waitTime   = 500 * time.Millisecond

	// commands
	commands = []*ishell.Cmd{
		&ScanCmd,
		&DevicesCmd,
		&SendCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&waitTime, "wait", waitTime, "Time to wait for answers.")
}

// New creates a new shell.
func New(conf *config.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Wait:        waitTime,

		Shell:   ishell.New(),
		Config:  conf,
		replies: make(chan frame.Frame, 16),
	}
	s.Directory = &exchanger.Directory{Fallback: exchanger.HandleFrameFunc(s.collectReply)}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt("chain > ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// WithExchanger uses an existing Exchanger instead of opening lines from
// the config. The handler of the Exchanger is replaced.
func (s *Shell) WithExchanger(x *exchanger.Exchanger) *Shell {
	x.Handler = s.Directory
	s.Exchanger = x
	return s
}

// Start runs the Exchanger in a background loop.
func (s *Shell) Start(ctx context.Context) error {
	if s.Exchanger == nil {
		x, err := s.Config.NewExchanger(s.Directory)
		if err != nil {
			return err
		}
		s.Exchanger = x
	}
	loop := fx.NewLoop()
	if s.Config != nil && s.Config.Interval > 0 {
		loop.Interval = s.Config.Interval
	}
	loop.Add(s.Exchanger)
	ctx, s.cancel = context.WithCancel(ctx)
	go loop.Run(ctx)
	return nil
}

// Stop stops the background loop.
func (s *Shell) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Scan probes the line on side and collects the answers.
func (s *Shell) Scan(side exchanger.Side) ([]exchanger.Device, error) {
	s.Directory.Reset()
	if err := s.Exchanger.Scan(side); err != nil {
		return nil, err
	}
	time.Sleep(s.Wait)
	return s.Directory.Devices(), nil
}

// Send sends a DATA frame to a discovered device and waits for the reply.
// A nil frame is returned if the device didn't reply in time.
func (s *Shell) Send(id frame.ID, status byte, payload []byte) (*frame.Frame, error) {
	dev, ok := s.Directory.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown device %s, scan first", id)
	}
	f := &frame.Frame{Kind: frame.KindData, Status: status, Sender: s.Exchanger.ID, Target: id}
	if len(payload) > frame.PayloadLen {
		return nil, fmt.Errorf("payload of %d bytes exceeds %d", len(payload), frame.PayloadLen)
	}
	copy(f.Payload[:], payload)
	s.drainReplies()
	if err := s.Exchanger.Send(f, dev.Side); err != nil {
		return nil, err
	}
	timeout := time.After(s.Wait)
	for {
		select {
		case reply := <-s.replies:
			if reply.Sender == id {
				return &reply, nil
			}
		case <-timeout:
			return nil, nil
		}
	}
}

func (s *Shell) collectReply(_ context.Context, f *frame.Frame) bool {
	select {
	case s.replies <- *f:
	default:
	}
	return false
}

func (s *Shell) drainReplies() {
	for {
		select {
		case <-s.replies:
		default:
			return
		}
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if err := s.Start(context.Background()); err != nil {
		log.Fatalln(err)
	}
	defer s.Stop()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Printf("Device %s\n", s.Exchanger.ID)
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func (s *Shell) print(c *ishell.Context, v interface{}, text func()) {
	if !s.OutputJSON {
		text()
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// ParseSide parses "up" or "down".
func ParseSide(s string) (exchanger.Side, error) {
	switch strings.ToLower(s) {
	case "up", "upstream":
		return exchanger.Upstream, nil
	case "down", "downstream":
		return exchanger.Downstream, nil
	}
	return exchanger.Upstream, fmt.Errorf("invalid side %q, expect up or down", s)
}

// ParseStatus parses a status byte in decimal or 0x hex.
func ParseStatus(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid status %q", s)
	}
	return byte(v), nil
}

// ParsePayload parses hex bytes, separators ':' and '-' are ignored.
func ParsePayload(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.NewReplacer(":", "", "-", "").Replace(s))
	if err != nil {
		return nil, err
	}
	if len(b) > frame.PayloadLen {
		return nil, fmt.Errorf("payload of %d bytes exceeds %d", len(b), frame.PayloadLen)
	}
	return b, nil
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := config.Resolve()
	if err != nil {
		log.Fatalln(err)
	}
	New(conf).Run(flag.Args()...)
}
