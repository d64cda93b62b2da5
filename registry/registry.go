package registry

import (
	"errors"
	"time"

	"code.hybscloud.com/iceoryx2/dynamicstorage"
	"code.hybscloud.com/iceoryx2/errs"
	"code.hybscloud.com/iceoryx2/monitor"
	"code.hybscloud.com/iceoryx2/staticstorage"
)

// dynamicSuffix distinguishes the dynamic-config shared-memory object
// from the static-config file published under the same service name.
const dynamicSuffix = ".dynamic"

const defaultPerm = 0o644

// Handle is a service's open registration: its immutable static
// configuration and a live handle on its mutable endpoint table.
type Handle struct {
	root    string
	name    string
	Static  StaticConfig
	dynamic *dynamicstorage.Storage[DynamicConfig]
}

// Dynamic returns the live endpoint table. Callers serialize their own
// reads/writes against it — see DynamicConfig's doc comment.
func (h *Handle) Dynamic() *DynamicConfig {
	return h.dynamic.Get()
}

// Close detaches from the dynamic-config mapping without removing it.
func (h *Handle) Close() error {
	return h.dynamic.Close()
}

// Create runs the registry's creation protocol: publish the static
// configuration, then create the dynamic-config cell, empty. Returns
// errs.ErrAlreadyExists if name is already registered.
func Create(root, name string, cfg StaticConfig) (*Handle, error) {
	if staticstorage.DoesExist(root, name) {
		return nil, errs.ErrAlreadyExists
	}
	if err := staticstorage.Create(root, name, cfg.Encode(), defaultPerm); err != nil {
		return nil, err
	}
	dyn, err := dynamicstorage.Create[DynamicConfig](root, name+dynamicSuffix, DynamicConfig{}, defaultPerm)
	if err != nil {
		_ = staticstorage.Remove(root, name)
		return nil, err
	}
	return &Handle{root: root, name: name, Static: cfg, dynamic: dyn}, nil
}

// Open reads an existing service's static configuration, waiting up to
// configTimeout for a concurrent creator to finish publishing, checks
// it against want's compatibility requirements, then opens the
// dynamic-config cell. Returns errs.ErrDoesNotExist if name has never
// been created.
func Open(root, name string, want StaticConfig, configTimeout time.Duration) (*Handle, error) {
	deadline := deadlineFrom(configTimeout)
	var content []byte
	for {
		var err error
		content, err = staticstorage.Open(root, name)
		if err == nil {
			break
		}
		if pastDeadline(deadline) {
			return nil, errs.ErrDoesNotExist
		}
		time.Sleep(time.Millisecond)
	}

	cfg, err := DecodeStaticConfig(content)
	if err != nil {
		return nil, err
	}
	if err := cfg.IsCompatibleWith(want); err != nil {
		return nil, err
	}

	remaining := remainingUntil(deadline)
	dyn, err := dynamicstorage.Open[DynamicConfig](root, name+dynamicSuffix, remaining)
	if err != nil {
		return nil, err
	}
	return &Handle{root: root, name: name, Static: cfg, dynamic: dyn}, nil
}

// OpenOrCreate tries Open first; if the service does not exist yet it
// tries Create; if a concurrent process wins that race it loops back
// to Open. The whole attempt is bounded by configTimeout.
func OpenOrCreate(root, name string, cfg StaticConfig, configTimeout time.Duration) (*Handle, error) {
	deadline := deadlineFrom(configTimeout)
	for {
		h, err := Open(root, name, cfg, time.Millisecond)
		if err == nil {
			return h, nil
		}
		if err != errs.ErrDoesNotExist {
			return nil, err
		}

		h, err = Create(root, name, cfg)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, errs.ErrAlreadyExists) {
			return nil, err
		}
		if pastDeadline(deadline) {
			return nil, errs.ErrTimeout
		}
		time.Sleep(time.Millisecond)
	}
}

// Discover lists the service names currently published under root
// whose name matches prefix/suffix.
func Discover(root, prefix, suffix string) ([]string, error) {
	return staticstorage.List(root, prefix, suffix)
}

// Watch polls Discover every pollInterval and reports, via onChange,
// the service names that appeared or disappeared since the previous
// poll. Blocks until stop is closed or a poll fails. Generalizes the
// discovery-service example's interval-poll-and-diff loop into a
// reusable method rather than a separate CLI binary.
func Watch(root, prefix, suffix string, pollInterval time.Duration, stop <-chan struct{}, onChange func(added, removed []string)) error {
	seen, err := discoverSet(root, prefix, suffix)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			cur, err := discoverSet(root, prefix, suffix)
			if err != nil {
				return err
			}
			var added, removed []string
			for name := range cur {
				if !seen[name] {
					added = append(added, name)
				}
			}
			for name := range seen {
				if !cur[name] {
					removed = append(removed, name)
				}
			}
			if len(added) > 0 || len(removed) > 0 {
				onChange(added, removed)
			}
			seen = cur
		}
	}
}

func discoverSet(root, prefix, suffix string) (map[string]bool, error) {
	names, err := Discover(root, prefix, suffix)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

// Cleanup runs the dead-node sweep: for every node id referenced by
// name's dynamic config, query the monitor; nodes reported Dead (or
// already gone entirely) have their endpoint slots released. Returns
// the endpoint count remaining afterward. Cleanup never removes the
// service itself — a service reaching zero endpoints just means no one
// is currently connected, not that no one ever will be again (S5: a
// freshly swept service must still be Open-able by the next node to
// arrive); see Remove for actually tearing a service down.
func Cleanup(root, name string, initTimeout time.Duration) (remaining uint32, err error) {
	dyn, err := dynamicstorage.Open[DynamicConfig](root, name+dynamicSuffix, time.Millisecond)
	if err != nil {
		return 0, err
	}
	defer dyn.Close()

	cfg := dyn.Get()
	for _, nodeID := range cfg.NodeIDs() {
		state, qerr := monitor.Query(root, nodeID, initTimeout)
		if qerr != nil {
			continue
		}
		if state == monitor.Dead || state == monitor.DoesNotExist {
			cfg.RemoveNode(nodeID)
		}
	}
	return cfg.EndpointCount, nil
}

// Remove tears a service down unconditionally: its dynamic-config cell
// and its static-config file. Callers are responsible for having
// established that no endpoint and no expected future participant
// remains (typically: Cleanup reported zero remaining endpoints, and
// this was the last handle an owning supervisor intended to keep
// alive).
func Remove(root, name string) error {
	if err := dynamicstorage.Remove(root, name+dynamicSuffix); err != nil {
		return err
	}
	return staticstorage.Remove(root, name)
}

func deadlineFrom(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}

func pastDeadline(deadline time.Time) bool {
	return !deadline.IsZero() && time.Now().After(deadline)
}

func remainingUntil(deadline time.Time) time.Duration {
	if deadline.IsZero() {
		return 0
	}
	d := time.Until(deadline)
	if d < 0 {
		return 0
	}
	return d
}
