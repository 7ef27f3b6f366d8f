package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	mpv "github.com/miu-player/miu-go/pkg/api/mpv/v1"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoWorkingMPVExecutableFound = errors.New("could not find a working mpv executable")
	ErrMPVSocketTimedOut           = errors.New("could not connect to the mpv IPC socket in time")
)

// DiscoverMPVExecutable finds an mpv command that works on this system,
// preferring the host mpv when running inside a Flatpak sandbox.
func DiscoverMPVExecutable() (string, error) {
	if _, err := os.Stat("/.flatpak-info"); err == nil {
		if err := exec.Command("flatpak-spawn", "--host", "mpv", "--version").Run(); err == nil {
			return "flatpak-spawn --host mpv", nil
		}

		if err := exec.Command("flatpak-spawn", "--host", "flatpak", "run", "io.mpv.Mpv", "--version").Run(); err == nil {
			return "flatpak-spawn --host flatpak run io.mpv.Mpv", nil
		}

		return "", ErrNoWorkingMPVExecutableFound
	}

	if runtime.GOOS == "windows" {
		if err := exec.Command("cmd.exe", "/c", "mpv.exe", "--version").Run(); err == nil {
			return "mpv.exe", nil
		}
	} else {
		if err := exec.Command("mpv", "--version").Run(); err == nil {
			return "mpv", nil
		}
	}

	if err := exec.Command("flatpak", "run", "io.mpv.Mpv", "--version").Run(); err == nil {
		return "flatpak run io.mpv.Mpv", nil
	}

	return "", ErrNoWorkingMPVExecutableFound
}

// MPV is an audio sink backed by a long-lived idle mpv process controlled
// over its JSON IPC socket.
type MPV struct {
	ipcFile string
	ipcDir  string
	cmd     *exec.Cmd
}

// StartMPV spawns mpv in idle mode and waits for its IPC socket to come up.
// The command may be a multi-word command line such as the ones returned by
// DiscoverMPVExecutable.
func StartMPV(command string, volume float64) (*MPV, error) {
	ipcDir, err := os.MkdirTemp(os.TempDir(), "mpv-ipc")
	if err != nil {
		return nil, err
	}

	ipcFile := filepath.Join(ipcDir, "mpv.sock")

	shell := []string{"sh", "-c"}
	if runtime.GOOS == "windows" {
		shell = []string{"cmd", "/c"}
	}
	commandLine := append(
		shell,
		fmt.Sprintf(
			"%v '--idle=yes' '--no-video' '--no-terminal' '--pause' '--volume=%v' '--input-ipc-server=%v'",
			command,
			int(volume*100),
			ipcFile,
		),
	)

	cmd := exec.Command(commandLine[0], commandLine[1:]...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	m := &MPV{
		ipcFile: ipcFile,
		ipcDir:  ipcDir,
		cmd:     cmd,
	}

	deadline := time.Now().Add(time.Second * 10)
	for {
		if _, err := os.Stat(ipcFile); err == nil {
			break
		}

		if time.Now().After(deadline) {
			_ = m.Close()

			return nil, ErrMPVSocketTimedOut
		}

		time.Sleep(time.Millisecond * 100)
	}

	log.Debug().
		Str("command", command).
		Str("ipcFile", ipcFile).
		Msg("Started mpv")

	return m, nil
}

func (m *MPV) request(command func(encoder *json.Encoder, decoder *json.Decoder) error) error {
	sock, err := net.Dial("unix", m.ipcFile)
	if err != nil {
		return err
	}
	defer sock.Close()

	encoder := json.NewEncoder(sock)
	decoder := json.NewDecoder(sock)

	return command(encoder, decoder)
}

// LoadTrack replaces the currently loaded file with the given stream URL.
// Playback stays paused until PlayFrom or Resume is called.
func (m *MPV) LoadTrack(url string) error {
	return m.request(func(encoder *json.Encoder, decoder *json.Decoder) error {
		if err := encoder.Encode(mpv.NewRequest("loadfile", url, "replace")); err != nil {
			return err
		}

		var successResponse mpv.ResponseSuccess

		return decoder.Decode(&successResponse)
	})
}

// PlayFrom seeks to the given position and unpauses.
func (m *MPV) PlayFrom(positionSeconds float64) error {
	if err := m.request(func(encoder *json.Encoder, decoder *json.Decoder) error {
		if err := encoder.Encode(mpv.NewRequest("seek", positionSeconds, "absolute")); err != nil {
			return err
		}

		var successResponse mpv.ResponseSuccess

		return decoder.Decode(&successResponse)
	}); err != nil {
		log.Debug().
			Err(err).
			Float64("position", positionSeconds).
			Msg("Could not seek before unpausing")
	}

	return m.setPause(false)
}

func (m *MPV) Pause() error {
	return m.setPause(true)
}

func (m *MPV) Resume() error {
	return m.setPause(false)
}

func (m *MPV) setPause(pause bool) error {
	return m.request(func(encoder *json.Encoder, decoder *json.Decoder) error {
		if err := encoder.Encode(mpv.NewRequest("set_property", "pause", pause)); err != nil {
			return err
		}

		var successResponse mpv.ResponseSuccess

		return decoder.Decode(&successResponse)
	})
}

// Stop unloads the current file and leaves mpv idling.
func (m *MPV) Stop() error {
	return m.request(func(encoder *json.Encoder, decoder *json.Decoder) error {
		if err := encoder.Encode(mpv.NewRequest("stop")); err != nil {
			return err
		}

		var successResponse mpv.ResponseSuccess

		return decoder.Decode(&successResponse)
	})
}

func (m *MPV) IsPlaying() (bool, error) {
	var pauseResponse mpv.ResponseBool
	if err := m.request(func(encoder *json.Encoder, decoder *json.Decoder) error {
		if err := encoder.Encode(mpv.NewRequest("get_property", "pause")); err != nil {
			return err
		}

		return decoder.Decode(&pauseResponse)
	}); err != nil {
		return false, err
	}

	var idleResponse mpv.ResponseBool
	if err := m.request(func(encoder *json.Encoder, decoder *json.Decoder) error {
		if err := encoder.Encode(mpv.NewRequest("get_property", "core-idle")); err != nil {
			return err
		}

		return decoder.Decode(&idleResponse)
	}); err != nil {
		return false, err
	}

	return !pauseResponse.Data && !idleResponse.Data, nil
}

// SetVolume sets the playback volume, where volume is between 0 and 1.
func (m *MPV) SetVolume(volume float64) error {
	return m.request(func(encoder *json.Encoder, decoder *json.Decoder) error {
		if err := encoder.Encode(mpv.NewRequest("set_property", "volume", volume*100)); err != nil {
			return err
		}

		var successResponse mpv.ResponseSuccess

		return decoder.Decode(&successResponse)
	})
}

// Close terminates the mpv process and removes the IPC socket directory.
func (m *MPV) Close() error {
	if m.cmd != nil && m.cmd.Process != nil {
		_ = m.cmd.Process.Kill()
		_, _ = m.cmd.Process.Wait()
	}

	return os.RemoveAll(m.ipcDir)
}
