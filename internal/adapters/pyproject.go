package adapters

import (
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"

	"pyimport/internal/ports"
	"pyimport/internal/types"
)

type PyProjectAdapter struct{}

func NewPyProjectAdapter() PyProjectAdapter {
	return PyProjectAdapter{}
}

func (a PyProjectAdapter) LoadPyProject(dir string) (types.PyProject, error) {
	data, err := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
	if err != nil {
		return types.PyProject{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project directory has no pyproject.toml").
			WithCause(err)
	}
	var project types.PyProject
	if err := toml.Unmarshal(data, &project); err != nil {
		return types.PyProject{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse pyproject.toml").
			WithCause(err)
	}
	return project, nil
}

var _ ports.PyProjectPort = PyProjectAdapter{}
