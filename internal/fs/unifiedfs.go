package fs

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"unifiedfs/internal/logging"
	"unifiedfs/internal/provider"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	vfsLogger = logging.GetLogger().WithPrefix("vfs")
)

// Options configures the mount.
type Options struct {
	// AllowOther lets users other than the mounting user access the mount.
	AllowOther bool
}

// UnifiedFS mounts a provider's namespace read-only. The root lists the
// top directories by display name, everything below them mirrors the
// filesystem, and file reads go through the provider's handle table.
type UnifiedFS struct {
	provider *provider.Provider
	opts     Options
	conn     *fuse.Conn   // FUSE connection
	uid      uint32       // User ID reported for every node
	gid      uint32       // Group ID reported for every node
	served   chan error   // Result of fusefs.Serve
	mu       sync.RWMutex // Protects conn
}

// NewUnifiedFS creates a filesystem over p.
func NewUnifiedFS(p *provider.Provider, opts Options) *UnifiedFS {
	vfsLogger.Info("Creating unified filesystem for %s", p.Authority())

	uid, gid := ownerIDs()
	return &UnifiedFS{
		provider: p,
		opts:     opts,
		uid:      uid,
		gid:      gid,
	}
}

// ownerIDs returns the process IDs, overridden by PUID/PGID when set.
func ownerIDs() (uint32, uint32) {
	uid := safeIntToUint32(os.Getuid())
	gid := safeIntToUint32(os.Getgid())

	if puidStr := os.Getenv("PUID"); puidStr != "" {
		if puid, err := strconv.ParseUint(puidStr, 10, 32); err == nil {
			uid = uint32(puid)
			vfsLogger.Debug("Using PUID from environment: %d", uid)
		}
	}
	if pgidStr := os.Getenv("PGID"); pgidStr != "" {
		if pgid, err := strconv.ParseUint(pgidStr, 10, 32); err == nil {
			gid = uint32(pgid)
			vfsLogger.Debug("Using PGID from environment: %d", gid)
		}
	}
	return uid, gid
}

// Root implements the fusefs.FS interface, returning the synthetic root.
func (vfs *UnifiedFS) Root() (fusefs.Node, error) {
	vfsLogger.Trace("Getting root directory node")
	return &Dir{
		fs:   vfs,
		path: NewVirtualPath("/"),
		id:   provider.RootID,
	}, nil
}

func waitForMount(mountpoint string) error {
	for i := 0; i < 30; i++ {
		info, err := os.Stat(mountpoint)
		if err == nil && info.IsDir() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("mount point not available after 3 seconds")
}

func (vfs *UnifiedFS) mountOptions() []fuse.MountOption {
	opts := []fuse.MountOption{
		fuse.FSName("unifiedfs"),
		fuse.Subtype("unifiedfs"),
		fuse.ReadOnly(),
		fuse.DefaultPermissions(),
		fuse.AsyncRead(),
	}
	if vfs.opts.AllowOther {
		opts = append(opts, fuse.AllowOther())
	}
	return opts
}

// Mount mounts the filesystem at mountPoint and serves it in the background.
func (vfs *UnifiedFS) Mount(mountPoint string) error {
	vfsLogger.Info("Mounting unified filesystem")
	vfsLogger.Debug("Mount point: %s", mountPoint)
	vfsLogger.Debug("UID: %d, GID: %d", vfs.uid, vfs.gid)

	c, err := fuse.Mount(mountPoint, vfs.mountOptions()...)
	if err != nil {
		return fmt.Errorf("mount failed: %w", err)
	}

	vfs.mu.Lock()
	vfs.conn = c
	vfs.served = make(chan error, 1)
	served := vfs.served
	vfs.mu.Unlock()

	go func() {
		err := fusefs.Serve(c, vfs)
		if err != nil {
			vfsLogger.Error("FUSE server error: %v", err)
		}
		served <- err
	}()

	if err := waitForMount(mountPoint); err != nil {
		c.Close()
		vfsLogger.Error("Mount point not ready: %v", err)
		return fmt.Errorf("mount point failed to initialize: %w", err)
	}

	vfsLogger.Info("Filesystem mounted successfully")
	return nil
}

// Served returns a channel that receives the result of the FUSE serve loop
// once the filesystem is unmounted. It is nil before Mount.
func (vfs *UnifiedFS) Served() <-chan error {
	vfs.mu.RLock()
	defer vfs.mu.RUnlock()
	return vfs.served
}

// Unmount cleanly unmounts the filesystem and releases every handle the
// mount left open.
func (vfs *UnifiedFS) Unmount(mountPoint string) error {
	vfsLogger.Info("Unmounting filesystem from: %s", mountPoint)

	vfs.mu.Lock()
	conn := vfs.conn
	vfs.conn = nil
	vfs.mu.Unlock()

	if conn == nil {
		return nil
	}

	err := fuse.Unmount(mountPoint)
	if err != nil {
		vfsLogger.Error("Unmount failed: %v", err)
	} else {
		vfsLogger.Info("Unmount completed successfully")
	}

	if closeErr := conn.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if closeErr := vfs.provider.Handles().CloseAll(); closeErr != nil {
		vfsLogger.Warn("Failed to release handles: %v", closeErr)
	}
	return err
}
