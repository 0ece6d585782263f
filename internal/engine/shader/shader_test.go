package shader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/orbitscene/internal/engine/device"
	"github.com/Faultbox/orbitscene/internal/engine/device/devicetest"
	"github.com/Faultbox/orbitscene/internal/engine/shader/shaders"
)

func TestProgramIsCached(t *testing.T) {
	dev := devicetest.New()
	c := NewCache(dev)

	p1, err := c.Program("phong", shaders.PhongVertexShader, shaders.PhongFragmentShader)
	require.NoError(t, err)
	p2, err := c.Program("phong", shaders.PhongVertexShader, shaders.PhongFragmentShader)
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, 2, dev.Count("CompileShader"))
	assert.Equal(t, 1, dev.Count("LinkProgram"))
	assert.Equal(t, 2, dev.Count("DeleteShader"), "stage objects are released after linking")
}

func TestCompileError(t *testing.T) {
	dev := devicetest.New()
	dev.FailCompile = map[device.Stage]string{device.StageFragment: "0:12: 'uShininess' undeclared"}
	c := NewCache(dev)

	_, err := c.Program("phong", "vs", "fs")
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, device.StageFragment, ce.Stage)
	assert.Contains(t, ce.Log, "uShininess")
	assert.Equal(t, 0, dev.Count("LinkProgram"), "link must not run after a failed compile")
}

func TestLinkError(t *testing.T) {
	dev := devicetest.New()
	dev.FailLink = "varying vNormal not written"
	c := NewCache(dev)

	_, err := c.Program("phong", "vs", "fs")

	var le *LinkError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "varying vNormal not written", le.Log)

	// A failed program is not cached.
	dev.FailLink = ""
	_, err = c.Program("phong", "vs", "fs")
	assert.NoError(t, err)
}

func TestResolveLocationsIsPermissive(t *testing.T) {
	dev := devicetest.New()
	dev.Missing["uUnused"] = true
	c := NewCache(dev)

	p, err := c.Program("phong", "vs", "fs")
	require.NoError(t, err)

	locs := c.ResolveLocations(p, "uModelViewMatrix", "aVertexPosition", "uUnused")

	assert.True(t, locs.Get("uModelViewMatrix").Valid())
	assert.True(t, locs.Get("aVertexPosition").Valid())
	assert.Equal(t, device.Absent, locs.Get("uUnused"))
	assert.Equal(t, device.Absent, locs.Get("neverRequested"))
}

func TestClose(t *testing.T) {
	dev := devicetest.New()
	c := NewCache(dev)

	_, err := c.Program("phong", "vs", "fs")
	require.NoError(t, err)
	_, err = c.Program("skybox", "vs", "fs")
	require.NoError(t, err)

	c.Close()
	assert.Equal(t, 2, dev.Count("DeleteProgram"))
}

func TestEmbeddedSourcesDeclareUniforms(t *testing.T) {
	for _, name := range []string{"uModelViewMatrix", "uProjectionMatrix", "uNormalMatrix", "uLightPosition"} {
		assert.Contains(t, shaders.PhongVertexShader, name)
	}
	for _, name := range []string{"uMaterialDiffuse", "uLightSpecular", "uShininess"} {
		assert.Contains(t, shaders.PhongFragmentShader, name)
	}
	assert.Contains(t, shaders.SkyboxFragmentShader, "uViewDirectionProjectionInverse")
}
