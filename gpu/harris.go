package gpu

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/openfluke/webgpu/wgpu"
)

// ResponseSpec configures the Harris response kernel for one batch
// element. Channels are independent and handled inside the shader.
type ResponseSpec struct {
	Channels int
	Height   int
	Width    int
	K        float32
}

// ResponseLayer holds GPU resources for the two-pass Harris response:
// a Sobel gradient pass followed by a blur-and-score pass. The score
// buffer holds the clamped response map; suppression and normalization
// happen host-side after readback.
type ResponseLayer struct {
	Spec ResponseSpec

	gradPipeline  *wgpu.ComputePipeline
	scorePipeline *wgpu.ComputePipeline
	gradBind      *wgpu.BindGroup
	scoreBind     *wgpu.BindGroup

	InputBuffer *wgpu.Buffer
	DxBuffer    *wgpu.Buffer
	DyBuffer    *wgpu.Buffer
	ScoreBuffer *wgpu.Buffer
}

func (l *ResponseLayer) elemCount() int {
	return l.Spec.Channels * l.Spec.Height * l.Spec.Width
}

func (l *ResponseLayer) AllocateBuffers(ctx *Context, labelPrefix string) error {
	size := uint64(l.elemCount() * 4)
	var err error

	l.InputBuffer, err = ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: labelPrefix + "_In",
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	l.DxBuffer, err = ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: labelPrefix + "_Dx",
		Size:  size,
		Usage: wgpu.BufferUsageStorage,
	})
	if err != nil {
		return err
	}
	l.DyBuffer, err = ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: labelPrefix + "_Dy",
		Size:  size,
		Usage: wgpu.BufferUsageStorage,
	})
	if err != nil {
		return err
	}
	l.ScoreBuffer, err = ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: labelPrefix + "_Score",
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	return err
}

// GenerateGradientShader emits the Sobel pass. Taps are unrolled at
// generation time with the kernel weights baked in; taps outside the
// image contribute zero, matching the CPU filter's border convention.
func (l *ResponseLayer) GenerateGradientShader() string {
	sobelX := [9]float32{-1, 0, 1, -2, 0, 2, -1, 0, 1}
	sobelY := [9]float32{-1, -2, -1, 0, 0, 0, 1, 2, 1}

	var taps strings.Builder
	for kh := 0; kh < 3; kh++ {
		for kw := 0; kw < 3; kw++ {
			wx := sobelX[kh*3+kw]
			wy := sobelY[kh*3+kw]
			if wx == 0 && wy == 0 {
				continue
			}
			fmt.Fprintf(&taps, `
				{
					let iy = i32(y) + %d;
					let ix = i32(x) + %d;
					if (iy >= 0 && iy < i32(H) && ix >= 0 && ix < i32(W)) {
						let v = input[base + u32(iy) * W + u32(ix)];
`, kh-1, kw-1)
			if wx != 0 {
				fmt.Fprintf(&taps, "\t\t\t\t\t\tgx += v * %s;\n", wgslFloat(wx))
			}
			if wy != 0 {
				fmt.Fprintf(&taps, "\t\t\t\t\t\tgy += v * %s;\n", wgslFloat(wy))
			}
			taps.WriteString("\t\t\t\t\t}\n\t\t\t\t}\n")
		}
	}

	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> input : array<f32>;
		@group(0) @binding(1) var<storage, read_write> dx : array<f32>;
		@group(0) @binding(2) var<storage, read_write> dy : array<f32>;

		const H: u32 = %du;
		const W: u32 = %du;
		const TOTAL: u32 = %du;

		@compute @workgroup_size(256)
		fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
			let idx = gid.x;
			if (idx >= TOTAL) { return; }

			let x = idx %% W;
			let y = (idx / W) %% H;
			let base = idx - y * W - x;

			var gx = 0.0;
			var gy = 0.0;
%s
			dx[idx] = gx;
			dy[idx] = gy;
		}
	`, l.Spec.Height, l.Spec.Width, l.elemCount(), taps.String())
}

// GenerateScoreShader emits the second pass: the 3x3 sigma-1 Gaussian of
// the gradient products is accumulated tap by tap, then the response
// det - k*trace^2 is clamped to the 1e-6 floor.
func (l *ResponseLayer) GenerateScoreShader() string {
	e := math.Exp(-0.5)
	sum := 1 + 2*e
	g1 := [3]float64{e / sum, 1 / sum, e / sum}

	var taps strings.Builder
	for kh := 0; kh < 3; kh++ {
		for kw := 0; kw < 3; kw++ {
			w := wgslFloat(float32(g1[kh] * g1[kw]))
			fmt.Fprintf(&taps, `
				{
					let iy = i32(y) + %d;
					let ix = i32(x) + %d;
					if (iy >= 0 && iy < i32(H) && ix >= 0 && ix < i32(W)) {
						let p = base + u32(iy) * W + u32(ix);
						let gx = dx[p];
						let gy = dy[p];
						sxx += gx * gx * %s;
						syy += gy * gy * %s;
						sxy += gx * gy * %s;
					}
				}
`, kh-1, kw-1, w, w, w)
		}
	}

	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> dx : array<f32>;
		@group(0) @binding(1) var<storage, read> dy : array<f32>;
		@group(0) @binding(2) var<storage, read_write> output : array<f32>;

		const H: u32 = %du;
		const W: u32 = %du;
		const TOTAL: u32 = %du;
		const K: f32 = %s;
		const FLOOR: f32 = 1e-6;

		@compute @workgroup_size(256)
		fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
			let idx = gid.x;
			if (idx >= TOTAL) { return; }

			let x = idx %% W;
			let y = (idx / W) %% H;
			let base = idx - y * W - x;

			var sxx = 0.0;
			var syy = 0.0;
			var sxy = 0.0;
%s
			let det = sxx * syy - sxy * sxy;
			let tr = sxx + syy;
			var s = det - K * tr * tr;
			if (s < FLOOR) { s = FLOOR; }
			output[idx] = s;
		}
	`, l.Spec.Height, l.Spec.Width, l.elemCount(), wgslFloat(l.Spec.K), taps.String())
}

func (l *ResponseLayer) Compile(ctx *Context, labelPrefix string) error {
	gradMod, err := ctx.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          labelPrefix + "_GradShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: l.GenerateGradientShader()},
	})
	if err != nil {
		return err
	}
	l.gradPipeline, err = ctx.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   labelPrefix + "_GradPipe",
		Compute: wgpu.ProgrammableStageDescriptor{Module: gradMod, EntryPoint: "main"},
	})
	if err != nil {
		return err
	}

	scoreMod, err := ctx.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          labelPrefix + "_ScoreShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: l.GenerateScoreShader()},
	})
	if err != nil {
		return err
	}
	l.scorePipeline, err = ctx.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   labelPrefix + "_ScorePipe",
		Compute: wgpu.ProgrammableStageDescriptor{Module: scoreMod, EntryPoint: "main"},
	})
	return err
}

func (l *ResponseLayer) CreateBindGroups(ctx *Context, labelPrefix string) error {
	var err error
	l.gradBind, err = ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  labelPrefix + "_GradBind",
		Layout: l.gradPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: l.InputBuffer, Size: l.InputBuffer.GetSize()},
			{Binding: 1, Buffer: l.DxBuffer, Size: l.DxBuffer.GetSize()},
			{Binding: 2, Buffer: l.DyBuffer, Size: l.DyBuffer.GetSize()},
		},
	})
	if err != nil {
		return err
	}
	l.scoreBind, err = ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  labelPrefix + "_ScoreBind",
		Layout: l.scorePipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: l.DxBuffer, Size: l.DxBuffer.GetSize()},
			{Binding: 1, Buffer: l.DyBuffer, Size: l.DyBuffer.GetSize()},
			{Binding: 2, Buffer: l.ScoreBuffer, Size: l.ScoreBuffer.GetSize()},
		},
	})
	return err
}

// Encode records both passes. Separate compute passes give the implicit
// barrier the score pass needs on the gradient buffers.
func (l *ResponseLayer) Encode(enc *wgpu.CommandEncoder) {
	groups := uint32((l.elemCount() + 255) / 256)

	pass := enc.BeginComputePass(nil)
	pass.SetPipeline(l.gradPipeline)
	pass.SetBindGroup(0, l.gradBind, nil)
	pass.DispatchWorkgroups(groups, 1, 1)
	pass.End()

	pass = enc.BeginComputePass(nil)
	pass.SetPipeline(l.scorePipeline)
	pass.SetBindGroup(0, l.scoreBind, nil)
	pass.DispatchWorkgroups(groups, 1, 1)
	pass.End()
}

func (l *ResponseLayer) Cleanup() {
	for _, b := range []*wgpu.Buffer{l.InputBuffer, l.DxBuffer, l.DyBuffer, l.ScoreBuffer} {
		if b != nil {
			b.Destroy()
		}
	}
	if l.gradPipeline != nil {
		l.gradPipeline.Release()
	}
	if l.scorePipeline != nil {
		l.scorePipeline.Release()
	}
	if l.gradBind != nil {
		l.gradBind.Release()
	}
	if l.scoreBind != nil {
		l.scoreBind.Release()
	}
}

// HarrisResponse computes the clamped Harris response map of a
// [batch, channels, height, width] input on the GPU. Batch elements are
// uploaded and dispatched one at a time through a shared layer.
func HarrisResponse(input []float32, batch, channels, height, width int, k float32) ([]float32, error) {
	if batch < 1 || len(input) != batch*channels*height*width {
		return nil, fmt.Errorf("input length %d does not match %dx%dx%dx%d",
			len(input), batch, channels, height, width)
	}
	ctx, err := GetContext()
	if err != nil {
		return nil, err
	}

	layer := &ResponseLayer{Spec: ResponseSpec{Channels: channels, Height: height, Width: width, K: k}}
	defer layer.Cleanup()
	if err := layer.AllocateBuffers(ctx, "Harris"); err != nil {
		return nil, err
	}
	if err := layer.Compile(ctx, "Harris"); err != nil {
		return nil, err
	}
	if err := layer.CreateBindGroups(ctx, "Harris"); err != nil {
		return nil, err
	}

	plane := channels * height * width
	out := make([]float32, len(input))
	for b := 0; b < batch; b++ {
		ctx.Queue.WriteBuffer(layer.InputBuffer, 0, wgpu.ToBytes(input[b*plane:(b+1)*plane]))

		enc, err := ctx.Device.CreateCommandEncoder(nil)
		if err != nil {
			return nil, err
		}
		layer.Encode(enc)
		cmd, err := enc.Finish(nil)
		if err != nil {
			return nil, err
		}
		ctx.Queue.Submit(cmd)

		scores, err := ReadBuffer(layer.ScoreBuffer, plane)
		if err != nil {
			return nil, err
		}
		copy(out[b*plane:], scores)
	}
	return out, nil
}

func wgslFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 32)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
