package tlsroots

import (
	"crypto/tls"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/recordsvc/internal/telemetry/logger"
)

// DefaultDebounce collapses the burst of events an editor or cert-manager
// produces when rewriting a key pair.
const DefaultDebounce = 200 * time.Millisecond

// KeyPairReloader serves a certificate loaded from disk and swaps it when
// the certificate or key file changes.
//
// The parent directories are watched rather than the files, so pairs
// replaced by rename and symlinked pairs (Kubernetes secret volumes, where
// a "..data" link is swapped) are picked up as well as in-place writes.
type KeyPairReloader struct {
	certFile string
	keyFile  string
	debounce time.Duration
	logger   logger.Logger

	mu   sync.RWMutex
	cert *tls.Certificate

	// Symlink-resolved paths of the pair last loaded.
	certTarget string
	keyTarget  string

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// ReloaderOption configures a KeyPairReloader.
type ReloaderOption func(*KeyPairReloader)

// WithLogger sets the reloader's logger.
func WithLogger(l logger.Logger) ReloaderOption {
	return func(r *KeyPairReloader) {
		r.logger = l
	}
}

// WithDebounce sets how long to wait after the last file event before
// reloading.
func WithDebounce(d time.Duration) ReloaderOption {
	return func(r *KeyPairReloader) {
		r.debounce = d
	}
}

// NewKeyPairReloader loads the key pair once and prepares the file watcher.
// Watching starts with Start.
func NewKeyPairReloader(certFile, keyFile string, opts ...ReloaderOption) (*KeyPairReloader, error) {
	certFile, err := filepath.Abs(certFile)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: %w", err)
	}
	keyFile, err = filepath.Abs(keyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: %w", err)
	}

	r := &KeyPairReloader{
		certFile: certFile,
		keyFile:  keyFile,
		debounce: DefaultDebounce,
		logger:   logger.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Reload(); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	for _, dir := range uniqueDirs(certFile, keyFile) {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}
	r.watcher = fw
	return r, nil
}

// Reload reads the key pair from disk. On failure the previous certificate
// stays in use.
func (r *KeyPairReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}

	r.mu.Lock()
	r.cert = &cert
	r.certTarget = resolve(r.certFile)
	r.keyTarget = resolve(r.keyFile)
	r.mu.Unlock()
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *KeyPairReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// ServerConfig returns a server TLS configuration backed by the reloader.
func (r *KeyPairReloader) ServerConfig() *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: r.GetCertificate,
	}
}

// Start begins watching in a background goroutine.
func (r *KeyPairReloader) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run()
	}()
	r.logger.Info("certificate reloader started",
		"cert_file", r.certFile,
		"key_file", r.keyFile,
	)
}

// Stop ends watching and waits for the goroutine to exit. It is safe to call
// more than once.
func (r *KeyPairReloader) Stop() error {
	var err error
	r.stopOnce.Do(func() {
		close(r.done)
		err = r.watcher.Close()
		r.wg.Wait()
	})
	return err
}

func (r *KeyPairReloader) run() {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-r.done:
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !r.affects(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(r.debounce)
			} else {
				timer.Reset(r.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if err := r.Reload(); err != nil {
				r.logger.Error("certificate reload failed",
					"cert_file", r.certFile,
					"error", err,
				)
				continue
			}
			r.logger.Info("certificate reloaded", "cert_file", r.certFile)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error("certificate watcher error", "error", err)
		}
	}
}

// affects reports whether event may have changed the served pair.
func (r *KeyPairReloader) affects(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if r.tracks(event.Name) {
		return true
	}
	return r.targetsChanged()
}

// targetsChanged catches symlink swaps, whose events name the link that
// moved rather than the files in use.
func (r *KeyPairReloader) targetsChanged() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return resolve(r.certFile) != r.certTarget || resolve(r.keyFile) != r.keyTarget
}

// resolve returns path with symlinks evaluated, or "" while it is missing.
func resolve(path string) string {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return ""
	}
	return target
}

func (r *KeyPairReloader) tracks(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == r.certFile || abs == r.keyFile
}

func uniqueDirs(files ...string) []string {
	seen := make(map[string]struct{}, len(files))
	var dirs []string
	for _, f := range files {
		d := filepath.Dir(f)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dirs = append(dirs, d)
	}
	return dirs
}
