package app

import (
	"github.com/vk/synnia/internal/registry"
	"github.com/vk/synnia/modules/builtin"
	"github.com/vk/synnia/modules/openai"
	"github.com/vk/synnia/modules/s3"
	"github.com/vk/synnia/modules/script"
	"github.com/vk/synnia/modules/socketio"
)

// coreModules is the definitive list of all modules that are compiled into
// the synnia binary.
func coreModules(cfg *Config) []registry.Module {
	return []registry.Module{
		&builtin.Module{},
		&openai.Module{},
		&script.Module{},
		&s3.Module{},
		&socketio.Module{URL: cfg.SocketIOURL},
	}
}

// credentialNames are read from the environment for provider selection.
var credentialNames = []string{
	openai.CredentialAPIKey,
	socketio.CredentialToken,
}
