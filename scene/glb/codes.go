package glb

import (
	"github.com/qmuntal/gltf"
	"github.com/soypat/keebcase/scene"
)

// The gltf package numbers its enums from zero; the scene model keeps the
// numbers used in glTF JSON.

func componentCode(c gltf.ComponentType) int {
	switch c {
	case gltf.ComponentByte:
		return scene.ComponentByte
	case gltf.ComponentUbyte:
		return scene.ComponentUbyte
	case gltf.ComponentShort:
		return scene.ComponentShort
	case gltf.ComponentUshort:
		return scene.ComponentUshort
	case gltf.ComponentUint:
		return scene.ComponentUint
	}
	return scene.ComponentFloat
}

func componentType(c int) gltf.ComponentType {
	switch c {
	case scene.ComponentByte:
		return gltf.ComponentByte
	case scene.ComponentUbyte:
		return gltf.ComponentUbyte
	case scene.ComponentShort:
		return gltf.ComponentShort
	case scene.ComponentUshort:
		return gltf.ComponentUshort
	case scene.ComponentUint:
		return gltf.ComponentUint
	}
	return gltf.ComponentFloat
}

func accessorTypeName(t gltf.AccessorType) string {
	switch t {
	case gltf.AccessorVec2:
		return scene.TypeVec2
	case gltf.AccessorVec3:
		return scene.TypeVec3
	case gltf.AccessorVec4:
		return scene.TypeVec4
	case gltf.AccessorMat2:
		return scene.TypeMat2
	case gltf.AccessorMat3:
		return scene.TypeMat3
	case gltf.AccessorMat4:
		return scene.TypeMat4
	}
	return scene.TypeScalar
}

func accessorType(t string) gltf.AccessorType {
	switch t {
	case scene.TypeVec2:
		return gltf.AccessorVec2
	case scene.TypeVec3:
		return gltf.AccessorVec3
	case scene.TypeVec4:
		return gltf.AccessorVec4
	case scene.TypeMat2:
		return gltf.AccessorMat2
	case scene.TypeMat3:
		return gltf.AccessorMat3
	case scene.TypeMat4:
		return gltf.AccessorMat4
	}
	return gltf.AccessorScalar
}

func modeCode(m gltf.PrimitiveMode) int {
	switch m {
	case gltf.PrimitivePoints:
		return scene.ModePoints
	case gltf.PrimitiveLines:
		return scene.ModeLines
	case gltf.PrimitiveLineLoop:
		return scene.ModeLineLoop
	case gltf.PrimitiveLineStrip:
		return scene.ModeLineStrip
	case gltf.PrimitiveTriangleStrip:
		return scene.ModeTriangleStrip
	case gltf.PrimitiveTriangleFan:
		return scene.ModeTriangleFan
	}
	return scene.ModeTriangles
}

func mode(m int) gltf.PrimitiveMode {
	switch m {
	case scene.ModePoints:
		return gltf.PrimitivePoints
	case scene.ModeLines:
		return gltf.PrimitiveLines
	case scene.ModeLineLoop:
		return gltf.PrimitiveLineLoop
	case scene.ModeLineStrip:
		return gltf.PrimitiveLineStrip
	case scene.ModeTriangleStrip:
		return gltf.PrimitiveTriangleStrip
	case scene.ModeTriangleFan:
		return gltf.PrimitiveTriangleFan
	}
	return gltf.PrimitiveTriangles
}

func targetCode(t gltf.Target) int {
	switch t {
	case gltf.TargetArrayBuffer:
		return scene.TargetArray
	case gltf.TargetElementArrayBuffer:
		return scene.TargetElementArray
	}
	return scene.TargetNone
}

func target(t int) gltf.Target {
	switch t {
	case scene.TargetArray:
		return gltf.TargetArrayBuffer
	case scene.TargetElementArray:
		return gltf.TargetElementArrayBuffer
	}
	return gltf.TargetNone
}
