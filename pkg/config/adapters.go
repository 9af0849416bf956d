package config

import (
	"fmt"

	"github.com/Kevinjil/stack-share-to-ftp/pkg/adapter"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/adapter/ftp"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/metrics"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/registry"
)

// CreateAdapters creates all enabled protocol adapters from the configuration.
//
// This factory function centralizes adapter creation logic and makes it easy to:
//   - Add new protocol adapters
//   - Configure metrics for all adapters
//   - Handle adapter-specific initialization
//
// Parameters:
//   - cfg: The complete bridge configuration
//   - sessions: Shared session registry (nil = each adapter keeps its own)
//   - ftpMetrics: Optional FTP metrics collector (nil = no metrics)
//
// Returns:
//   - []adapter.Adapter: List of enabled adapters ready to be added to the server
//   - error: Any error during adapter creation
func CreateAdapters(cfg *Config, sessions *registry.Registry, ftpMetrics metrics.FTPMetrics) ([]adapter.Adapter, error) {
	var adapters []adapter.Adapter

	// Create FTP adapter if enabled
	if cfg.Adapters.FTP.Enabled {
		ftpAdapter := ftp.New(cfg.Adapters.FTP, sessions, ftpMetrics)
		adapters = append(adapters, ftpAdapter)
	}

	// Future adapters can be added here:
	// if cfg.Adapters.SFTP.Enabled {
	//     sftpAdapter := sftp.New(cfg.Adapters.SFTP, sessions)
	//     adapters = append(adapters, sftpAdapter)
	// }

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no adapters enabled in configuration")
	}

	return adapters, nil
}
