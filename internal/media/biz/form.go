package biz

// Submission 携带下载路径的表单提交，在 HTTP 边界处确定具体类型
type Submission interface {
	// Subject returns the media the alias belongs to and the submitted alias.
	// The media is nil when the form carries no media entity.
	Subject() (*Media, string)
	submission()
}

// EntityForm 媒体实体编辑表单
type EntityForm struct {
	Media *Media
	Alias string
}

func (f EntityForm) Subject() (*Media, string) { return f.Media, f.Alias }
func (EntityForm) submission()                  {}

// BrowserForm 实体浏览器内嵌表单，优先使用 Entity，缺失时回退到 DefaultValue
type BrowserForm struct {
	Entity       *Media
	DefaultValue *Media
	Alias        string
}

func (f BrowserForm) Subject() (*Media, string) {
	if f.Entity != nil {
		return f.Entity, f.Alias
	}
	return f.DefaultValue, f.Alias
}
func (BrowserForm) submission() {}

// UploadForm 上传表单，别名作用于第一个媒体
type UploadForm struct {
	Media []*Media
	Alias string
}

func (f UploadForm) Subject() (*Media, string) {
	if len(f.Media) == 0 {
		return nil, f.Alias
	}
	return f.Media[0], f.Alias
}
func (UploadForm) submission() {}
