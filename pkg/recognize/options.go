package recognize

// Options 识别选项
type Options struct {
	Annotate bool   // 是否返回标注后的搜索图
	Label    bool   // 是否在标注图上绘制消息文字
	Details  bool   // 是否返回匹配中间量
	ThumbMax int    // 标注图最大边长，0 表示不缩小
	Format   string // 标注图格式: png / jpeg
	Quality  int    // JPEG 质量
}

// Option 选项函数
type Option func(*Options)

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{
		Annotate: true,
		Format:   "png",
		Quality:  85,
	}
}

func applyOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithAnnotate 设置是否返回标注图
func WithAnnotate(enabled bool) Option {
	return func(o *Options) {
		o.Annotate = enabled
	}
}

// WithLabel 设置是否绘制消息文字
func WithLabel(enabled bool) Option {
	return func(o *Options) {
		o.Label = enabled
	}
}

// WithDetails 设置是否返回匹配中间量
func WithDetails(enabled bool) Option {
	return func(o *Options) {
		o.Details = enabled
	}
}

// WithThumbMax 设置标注图最大边长
func WithThumbMax(size int) Option {
	return func(o *Options) {
		if size >= 0 {
			o.ThumbMax = size
		}
	}
}

// WithFormat 设置标注图格式和 JPEG 质量
func WithFormat(format string, quality int) Option {
	return func(o *Options) {
		o.Format = format
		o.Quality = quality
	}
}
