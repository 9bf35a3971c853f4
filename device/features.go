// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"math/bits"
	"strings"
)

// Features is a set of physical device features, one bit per feature in the
// order the driver declares them
type Features uint64

// Device features
const (
	FeatureRobustBufferAccess Features = 1 << iota
	FeatureFullDrawIndexUint32
	FeatureImageCubeArray
	FeatureIndependentBlend
	FeatureGeometryShader
	FeatureTessellationShader
	FeatureSampleRateShading
	FeatureDualSrcBlend
	FeatureLogicOp
	FeatureMultiDrawIndirect
	FeatureDrawIndirectFirstInstance
	FeatureDepthClamp
	FeatureDepthBiasClamp
	FeatureFillModeNonSolid
	FeatureDepthBounds
	FeatureWideLines
	FeatureLargePoints
	FeatureAlphaToOne
	FeatureMultiViewport
	FeatureSamplerAnisotropy
	FeatureTextureCompressionETC2
	FeatureTextureCompressionASTCLDR
	FeatureTextureCompressionBC
	FeatureOcclusionQueryPrecise
	FeaturePipelineStatisticsQuery
	FeatureVertexPipelineStoresAndAtomics
	FeatureFragmentStoresAndAtomics
	FeatureShaderTessellationAndGeometryPointSize
	FeatureShaderImageGatherExtended
	FeatureShaderStorageImageExtendedFormats
	FeatureShaderStorageImageMultisample
	FeatureShaderStorageImageReadWithoutFormat
	FeatureShaderStorageImageWriteWithoutFormat
	FeatureShaderUniformBufferArrayDynamicIndexing
	FeatureShaderSampledImageArrayDynamicIndexing
	FeatureShaderStorageBufferArrayDynamicIndexing
	FeatureShaderStorageImageArrayDynamicIndexing
	FeatureShaderClipDistance
	FeatureShaderCullDistance
	FeatureShaderFloat64
	FeatureShaderInt64
	FeatureShaderInt16
	FeatureShaderResourceResidency
	FeatureShaderResourceMinLod
	FeatureSparseBinding
	FeatureSparseResidencyBuffer
	FeatureSparseResidencyImage2D
	FeatureSparseResidencyImage3D
	FeatureSparseResidency2Samples
	FeatureSparseResidency4Samples
	FeatureSparseResidency8Samples
	FeatureSparseResidency16Samples
	FeatureSparseResidencyAliased
	FeatureVariableMultisampleRate
	FeatureInheritedQueries
)

var featureNames = []string{
	"robustBufferAccess",
	"fullDrawIndexUint32",
	"imageCubeArray",
	"independentBlend",
	"geometryShader",
	"tessellationShader",
	"sampleRateShading",
	"dualSrcBlend",
	"logicOp",
	"multiDrawIndirect",
	"drawIndirectFirstInstance",
	"depthClamp",
	"depthBiasClamp",
	"fillModeNonSolid",
	"depthBounds",
	"wideLines",
	"largePoints",
	"alphaToOne",
	"multiViewport",
	"samplerAnisotropy",
	"textureCompressionETC2",
	"textureCompressionASTC_LDR",
	"textureCompressionBC",
	"occlusionQueryPrecise",
	"pipelineStatisticsQuery",
	"vertexPipelineStoresAndAtomics",
	"fragmentStoresAndAtomics",
	"shaderTessellationAndGeometryPointSize",
	"shaderImageGatherExtended",
	"shaderStorageImageExtendedFormats",
	"shaderStorageImageMultisample",
	"shaderStorageImageReadWithoutFormat",
	"shaderStorageImageWriteWithoutFormat",
	"shaderUniformBufferArrayDynamicIndexing",
	"shaderSampledImageArrayDynamicIndexing",
	"shaderStorageBufferArrayDynamicIndexing",
	"shaderStorageImageArrayDynamicIndexing",
	"shaderClipDistance",
	"shaderCullDistance",
	"shaderFloat64",
	"shaderInt64",
	"shaderInt16",
	"shaderResourceResidency",
	"shaderResourceMinLod",
	"sparseBinding",
	"sparseResidencyBuffer",
	"sparseResidencyImage2D",
	"sparseResidencyImage3D",
	"sparseResidency2Samples",
	"sparseResidency4Samples",
	"sparseResidency8Samples",
	"sparseResidency16Samples",
	"sparseResidencyAliased",
	"variableMultisampleRate",
	"inheritedQueries",
}

// Has reports whether every feature of f is in the set
func (s Features) Has(f Features) bool {
	return s&f == f
}

// Missing returns the features of required that are not in the set
func (s Features) Missing(required Features) Features {
	return required &^ s
}

// Count returns the number of features in the set
func (s Features) Count() int {
	return bits.OnesCount64(uint64(s))
}

// Names lists the named features in the set
func (s Features) Names() []string {
	var names []string
	for i, name := range featureNames {
		if s&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	return names
}

func (s Features) String() string {
	return strings.Join(s.Names(), "|")
}

// FeatureByName looks a feature up by its driver name, e.g. "samplerAnisotropy"
func FeatureByName(name string) (Features, bool) {
	for i, n := range featureNames {
		if n == name {
			return 1 << uint(i), true
		}
	}
	return 0, false
}
