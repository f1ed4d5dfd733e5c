package app

import (
	"io"

	"github.com/specialistvlad/chainrunner/internal/registry"
	"github.com/specialistvlad/chainrunner/modules/echo"
	"github.com/specialistvlad/chainrunner/modules/env_vars"
	"github.com/specialistvlad/chainrunner/modules/http_request"
	"github.com/specialistvlad/chainrunner/modules/print"
	"github.com/specialistvlad/chainrunner/modules/s3"
	"github.com/specialistvlad/chainrunner/modules/socketio"
)

// coreModules is the definitive list of all modules that are compiled into
// the chainrunner binary. The print module writes to outW.
func coreModules(outW io.Writer) []registry.Module {
	return []registry.Module{
		&echo.Module{},
		&env_vars.Module{},
		&http_request.Module{},
		&print.Module{Out: outW},
		&s3.Module{},
		&socketio.Module{},
	}
}
