package device

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/elvencache/ec-bokeh/internal/engine3D"
	"github.com/elvencache/ec-bokeh/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

//go:embed shaders
var shaderFS embed.FS

var ErrShaderCompile = errors.New("device: shader failed to compile")

const glslVersion = "#version 330\n"

// programSources lists the vertex shader and extra includes of each program.
// The fragment shader is named after the program.
var programSources = map[engine3D.Program]struct {
	vertex   string
	includes []string
}{
	engine3D.ProgramForward:       {vertex: "forward.vs"},
	engine3D.ProgramLinearDepth:   {vertex: "screen.vs"},
	engine3D.ProgramDoFSinglePass: {vertex: "screen.vs", includes: []string{"bokeh.glsl"}},
	engine3D.ProgramDoFDownsample: {vertex: "screen.vs", includes: []string{"bokeh.glsl"}},
	engine3D.ProgramDoFQuarter:    {vertex: "screen.vs", includes: []string{"bokeh.glsl"}},
	engine3D.ProgramDoFCombine:    {vertex: "screen.vs"},
	engine3D.ProgramCopy:          {vertex: "screen.vs"},
}

// materialSamplers are bound through the material maps DrawMesh understands.
var materialSamplers = map[string]int32{
	"s_albedo": rl.MapAlbedo,
	"s_normal": rl.MapNormal,
}

type program struct {
	name      string
	shader    rl.Shader
	params    int32
	locations map[string]int32
}

func (p *program) location(sampler string) int32 {
	if loc, ok := p.locations[sampler]; ok {
		return loc
	}
	loc := rl.GetShaderLocation(p.shader, sampler)
	if loc < 0 {
		utils.Warn("Device: %s has no sampler %s", p.name, sampler)
	}
	p.locations[sampler] = loc
	return loc
}

func (p *program) setParams(values []float32) {
	if len(values) == 0 || p.params < 0 {
		return
	}
	rl.SetShaderValueV(p.shader, p.params, values, rl.ShaderUniformVec4, int32(len(values)/4))
}

func readShader(name string) (string, error) {
	data, err := shaderFS.ReadFile("shaders/" + name)
	if err != nil {
		return "", fmt.Errorf("device: shader source %s: %w", name, err)
	}
	return string(data), nil
}

// assembleShader prepends the version line, the packed parameter block and
// the includes to a shader stage.
func assembleShader(stage string, includes []string) (string, error) {
	var sb strings.Builder
	sb.WriteString(glslVersion)

	for _, name := range append([]string{"params.glsl"}, includes...) {
		src, err := readShader(name)
		if err != nil {
			return "", err
		}
		sb.WriteString(src)
		sb.WriteString("\n")
	}

	src, err := readShader(stage)
	if err != nil {
		return "", err
	}
	sb.WriteString(src)
	return sb.String(), nil
}

func compile(name, vSource, fSource string) (shader rl.Shader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrShaderCompile, name, r)
		}
	}()
	shader = rl.LoadShaderFromMemory(vSource, fSource)
	// raylib falls back to its default shader when compilation fails.
	if shader.ID == 0 || shader.ID == rl.GetShaderIdDefault() {
		return rl.Shader{}, fmt.Errorf("%w: %s", ErrShaderCompile, name)
	}
	return shader, nil
}

func (d *Device) loadPrograms() error {
	for id, src := range programSources {
		name := id.String()
		vSource, err := assembleShader(src.vertex, nil)
		if err != nil {
			return err
		}
		fSource, err := assembleShader(name+".fs", src.includes)
		if err != nil {
			return err
		}

		shader, err := compile(name, vSource, fSource)
		if err != nil {
			return err
		}

		prog := &program{
			name:      name,
			shader:    shader,
			params:    rl.GetShaderLocation(shader, "u_params"),
			locations: make(map[string]int32),
		}
		if id == engine3D.ProgramForward {
			for sampler, mapIndex := range materialSamplers {
				shader.UpdateLocation(rl.ShaderLocMapAlbedo+mapIndex, prog.location(sampler))
			}
		}
		d.programs[id] = prog
		utils.Info("Shader: %s - Loaded successfully (ID: %d)", name, shader.ID)
	}
	return nil
}

func (d *Device) program(id engine3D.Program) (*program, error) {
	p, ok := d.programs[id]
	if !ok {
		return nil, fmt.Errorf("%w: program %s", ErrUnknownHandle, id)
	}
	return p, nil
}
