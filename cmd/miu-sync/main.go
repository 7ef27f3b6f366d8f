package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/phayes/freeport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/miu-player/miu-go/internal/config"
	"github.com/miu-player/miu-go/internal/player"
	mpvClient "github.com/miu-player/miu-go/pkg/client"
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	errMissingServer = errors.New("missing server URL")
)

func main() {
	verbose := flag.Int("verbose", 5, "Verbosity level (0 is disabled, default is info, 7 is trace)")
	server := flag.String("server", "", "MIU server URL (i.e. https://miu.gacha.boo)")
	mpv := flag.String("mpv", "", "Command to launch mpv with (autodiscovered if empty)")
	addr := flag.String("addr", "localhost:0", "Listen address for the local snapshot endpoint")

	flag.Parse()

	switch *verbose {
	case 0:
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case 1:
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case 2:
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case 3:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case 4:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case 5:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 6:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	if strings.TrimSpace(*server) == "" {
		panic(errMissingServer)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().
			Err(err).
			Msg("Could not load config, using defaults")

		cfg = config.Default()
	}

	mpvCommand := *mpv
	if strings.TrimSpace(mpvCommand) == "" {
		command, err := mpvClient.DiscoverMPVExecutable()
		if err != nil {
			panic(err)
		}

		mpvCommand = command
	}

	sink, err := mpvClient.StartMPV(mpvCommand, cfg.Volume)
	if err != nil {
		panic(err)
	}

	manager := player.NewManager(player.NewEndpoints(*server), sink, nil)

	if err := manager.Open(); err != nil {
		panic(err)
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", *addr)
	if err != nil {
		panic(err)
	}

	if tcpAddr.Port == 0 {
		port, err := freeport.GetFreePort()
		if err != nil {
			panic(err)
		}

		tcpAddr.Port = port
	}

	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			if err := json.NewEncoder(w).Encode(manager.Snapshot()); err != nil {
				log.Debug().
					Err(err).
					Msg("Could not write snapshot")
			}
		})

		log.Info().
			Str("address", tcpAddr.String()).
			Msg("Snapshot endpoint listening")

		if err := http.ListenAndServe(tcpAddr.String(), mux); err != nil {
			panic(err)
		}
	}()

	go func() {
		l := manager.Subscribe(1)
		defer l.Close()

		lastTrack := ""
		for snapshot := range l.Ch() {
			trackID := ""
			title := ""
			if snapshot.CurrentTrack != nil {
				trackID = snapshot.CurrentTrack.YoutubeID
				title = snapshot.CurrentTrack.Title
			}

			if trackID != lastTrack {
				lastTrack = trackID

				if title != "" {
					fmt.Printf("Now playing: %v\n", title)
				}
			}
		}
	}()

	s := make(chan os.Signal, 1)
	signal.Notify(s, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Println("Commands: p (play/pause), v+ (volume up), v- (volume down), q (quit)")

		volume := cfg.Volume

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			switch strings.TrimSpace(scanner.Text()) {
			case "p":
				manager.TogglePause()
			case "v+", "v-":
				if strings.TrimSpace(scanner.Text()) == "v+" {
					volume += 0.1
				} else {
					volume -= 0.1
				}

				if volume < 0 {
					volume = 0
				}

				if volume > 1 {
					volume = 1
				}

				if err := sink.SetVolume(volume); err != nil {
					log.Warn().
						Err(err).
						Msg("Could not set volume")

					continue
				}

				fmt.Printf("Volume: %v%%\n", int(volume*100))

				cfg.Volume = volume
				if err := config.Save(cfg); err != nil {
					log.Warn().
						Err(err).
						Msg("Could not save config")
				}
			case "q":
				s <- syscall.SIGTERM
			}
		}
	}()

	<-s

	log.Debug().Msg("Gracefully shutting down")

	go func() {
		<-s

		log.Debug().Msg("Forcing shutdown")

		os.Exit(1)
	}()

	if err := manager.Close(); err != nil {
		panic(err)
	}

	if err := sink.Close(); err != nil {
		panic(err)
	}
}
