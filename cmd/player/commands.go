package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Controls is the set of operator intents a command line can trigger.
type Controls interface {
	Play()
	Pause()
	Switch()
	Seek(seconds int)
	SetThrottle(text string)
}

var errQuit = errors.New("quit")

const usage = `commands:
  play            start or resume playback
  pause           pause playback
  switch          restart on the next video
  seek <seconds>  move to a position
  throttle <ms>   rate-limit seeks (0 disables)
  quit            stop the session and exit`

// dispatch runs one command line against c. It returns errQuit for quit and
// a descriptive error for anything it cannot parse.
func dispatch(line string, c Controls) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "play", "p":
		c.Play()
	case "pause":
		c.Pause()
	case "switch", "next", "n":
		c.Switch()
	case "seek", "s":
		if len(args) != 1 {
			return fmt.Errorf("usage: seek <seconds>")
		}
		seconds, err := strconv.Atoi(args[0])
		if err != nil || seconds < 0 {
			return fmt.Errorf("invalid seek position %q", args[0])
		}
		c.Seek(seconds)
	case "throttle", "t":
		c.SetThrottle(strings.Join(args, " "))
	case "quit", "q", "exit":
		return errQuit
	case "help", "?":
		return errors.New(usage)
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
	return nil
}
