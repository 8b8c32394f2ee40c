package app

import (
	"github.com/specialistvlad/packgrid/internal/registry"
	"github.com/specialistvlad/packgrid/modules/banner"
	"github.com/specialistvlad/packgrid/modules/copy_files"
	"github.com/specialistvlad/packgrid/modules/include"
	"github.com/specialistvlad/packgrid/modules/json_loader"
	"github.com/specialistvlad/packgrid/modules/pause"
	"github.com/specialistvlad/packgrid/modules/quote"
	"github.com/specialistvlad/packgrid/modules/socketio"
	"github.com/specialistvlad/packgrid/modules/stringify"
	"github.com/specialistvlad/packgrid/modules/yaml_loader"
)

// coreModules is the definitive list of all modules that are compiled into
// the packgrid binary.
var coreModules = []registry.Module{
	&json_loader.Module{},
	&yaml_loader.Module{},
	&stringify.Module{},
	&banner.Module{},
	&include.Module{},
	&quote.Module{},
	&copy_files.Module{},
	&pause.Module{},
	&socketio.Module{},
}
