package line

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goburrow/serial"
	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// Open opens a line from URL. Supported schemes:
//
//   serial:///dev/ttyUSB0?baud=9600&databits=8&stopbits=1&parity=N
//   tcp://host:port          dials a peer device
//   tcp+listen://:port       waits for one peer device to connect
//   ws://host:port/path      websocket bridge
//
// "none" or an empty URL means the end of the chain and returns nil.
func Open(rawURL string, capacity int) (*Stream, error) {
	if rawURL == "" || rawURL == "none" {
		return nil, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid line URL %q: %v", rawURL, err)
	}
	switch u.Scheme {
	case "serial":
		conf, err := SerialConfigFromURL(u)
		if err != nil {
			return nil, err
		}
		port, err := serial.Open(conf)
		if err != nil {
			return nil, err
		}
		glog.Infof("line %s opened, %d baud", conf.Address, conf.BaudRate)
		return NewStream(conf.Address, port, capacity), nil
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return NewStream(u.Host, conn, capacity), nil
	case "tcp+listen":
		ln, err := net.Listen("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		defer ln.Close()
		glog.Infof("line %s waiting for peer", ln.Addr())
		conn, err := ln.Accept()
		if err != nil {
			return nil, err
		}
		return NewStream(conn.RemoteAddr().String(), conn, capacity), nil
	case "ws", "wss":
		origin := "http://" + u.Host + "/"
		conn, err := websocket.Dial(rawURL, "", origin)
		if err != nil {
			return nil, err
		}
		return NewStream(u.Host, conn, capacity), nil
	default:
		return nil, fmt.Errorf("unknown line URL scheme: %q", u.Scheme)
	}
}

// SerialConfigFromURL builds serial port settings from a serial:// URL.
func SerialConfigFromURL(u *url.URL) (*serial.Config, error) {
	conf := &serial.Config{
		Address:  u.Path,
		BaudRate: 9600,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  100 * time.Millisecond,
	}
	if conf.Address == "" {
		conf.Address = u.Host + u.Opaque
	}
	if conf.Address == "" {
		return nil, fmt.Errorf("serial device not specified")
	}
	q := u.Query()
	for key, dst := range map[string]*int{
		"baud":     &conf.BaudRate,
		"databits": &conf.DataBits,
		"stopbits": &conf.StopBits,
	} {
		if val := q.Get(key); val != "" {
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: %v", key, val, err)
			}
			*dst = n
		}
	}
	if val := q.Get("parity"); val != "" {
		switch p := strings.ToUpper(val); p {
		case "N", "E", "O":
			conf.Parity = p
		default:
			return nil, fmt.Errorf("invalid parity %q", val)
		}
	}
	if val := q.Get("timeout"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %v", val, err)
		}
		conf.Timeout = d
	}
	return conf, nil
}
