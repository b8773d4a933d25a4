package tunnel

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrWriteFailed means the peer could not be added to the configuration
	// file. The interface has been brought back up from the previous file.
	ErrWriteFailed = errors.New("peer configuration write failed")

	// ErrReloadFailed means the interface did not come back up with the
	// peer loaded. The previous configuration has been restored and the
	// interface brought up from it where possible.
	ErrReloadFailed = errors.New("interface reload failed")
)

// Peer is a client to register with the server interface.
type Peer struct {
	PublicKey    string
	PresharedKey string
	Address      netip.Addr
}

// Synchronizer registers peers with the live interface. Implementations do
// not lock; callers serialize RegisterPeer themselves.
type Synchronizer interface {
	RegisterPeer(ctx context.Context, peer Peer) error
}

// QuickSynchronizer appends peers to a wg-quick configuration file and
// cycles the interface with wg-quick down/up so the new peer is loaded.
type QuickSynchronizer struct {
	Interface  string
	ConfigPath string
	WGQuick    string
	WG         string

	runner Runner
	file   configFile
	now    func() time.Time
	log    *logrus.Entry
}

var _ Synchronizer = (*QuickSynchronizer)(nil)

// NewQuickSynchronizer manages iface, whose configuration lives at
// configPath. With privileged set the file is edited through the runner
// (cp and tee) instead of directly, for root-owned configurations.
func NewQuickSynchronizer(runner Runner, iface, configPath, wgQuick, wg string, privileged bool) *QuickSynchronizer {
	bak := configPath + ".bak"
	var file configFile = &directFile{path: configPath, bak: bak}
	if privileged {
		file = &commandFile{runner: runner, path: configPath, bak: bak}
	}
	return &QuickSynchronizer{
		Interface:  iface,
		ConfigPath: configPath,
		WGQuick:    wgQuick,
		WG:         wg,
		runner:     runner,
		file:       file,
		now:        time.Now,
		log: logrus.WithFields(logrus.Fields{
			"component": "synchronizer",
			"interface": iface,
		}),
	}
}

// BackupPath is where the configuration is copied before each change.
func (s *QuickSynchronizer) BackupPath() string {
	return s.ConfigPath + ".bak"
}

// RegisterPeer backs up the configuration, brings the interface down,
// appends the peer block and brings the interface up again.
func (s *QuickSynchronizer) RegisterPeer(ctx context.Context, peer Peer) error {
	log := s.log.WithField("address", peer.Address.String())

	if err := s.file.backup(ctx); err != nil {
		logCommandError(log, err).Error("Configuration backup failed")
		return fmt.Errorf("%w: backup: %w", ErrWriteFailed, err)
	}

	if err := s.down(ctx); err != nil {
		logCommandError(log, err).Warn("Interface down failed, treating as already down")
	}

	if err := s.file.append(ctx, PeerBlock(peer, s.now())); err != nil {
		logCommandError(log, err).Error("Appending peer block failed")
		s.revert(ctx, log, false)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	if err := s.up(ctx); err != nil {
		logCommandError(log, err).Error("Interface up failed")
		s.revert(ctx, log, false)
		return fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}

	loaded, err := s.isLoaded(ctx, peer.PublicKey)
	if err != nil {
		logCommandError(log, err).Warn("Could not read live peers, assuming the peer is loaded")
	} else if !loaded {
		log.Error("Interface came up without the new peer")
		s.revert(ctx, log, true)
		return fmt.Errorf("%w: peer not present on %s", ErrReloadFailed, s.Interface)
	}

	log.Info("Peer registered")
	return nil
}

// revert puts the backed-up configuration back so the file never lists a
// peer whose address may be handed out again, then brings the interface up
// even if the restore failed.
func (s *QuickSynchronizer) revert(ctx context.Context, log *logrus.Entry, isUp bool) {
	if isUp {
		if err := s.down(ctx); err != nil {
			logCommandError(log, err).Warn("Interface down failed during revert")
		}
	}
	if err := s.file.restore(ctx); err != nil {
		logCommandError(log, err).Error("Restoring previous configuration failed")
	}
	if err := s.up(ctx); err != nil {
		logCommandError(log, err).Error("Interface is down after revert")
	}
}

func (s *QuickSynchronizer) isLoaded(ctx context.Context, publicKey string) (bool, error) {
	peers, err := s.LivePeers(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range peers {
		if p == publicKey {
			return true, nil
		}
	}
	return false, nil
}

// LivePeers lists the public keys currently loaded on the interface.
func (s *QuickSynchronizer) LivePeers(ctx context.Context) ([]string, error) {
	out, err := s.runner.Run(ctx, "", s.WG, "show", s.Interface, "peers")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return []string{}, nil
	}
	return strings.Fields(out), nil
}

func (s *QuickSynchronizer) down(ctx context.Context) error {
	_, err := s.runner.Run(ctx, "", s.WGQuick, "down", s.Interface)
	return err
}

func (s *QuickSynchronizer) up(ctx context.Context) error {
	_, err := s.runner.Run(ctx, "", s.WGQuick, "up", s.Interface)
	return err
}

func logCommandError(log *logrus.Entry, err error) *logrus.Entry {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return log.WithFields(logrus.Fields{
			"command":   cmdErr.Command,
			"exit_code": cmdErr.ExitCode,
			"stderr":    cmdErr.Stderr,
		}).WithError(cmdErr.Err)
	}
	return log.WithError(err)
}
