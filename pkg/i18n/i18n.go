// Package i18n 提供识别结果的本地化消息
//
// 支持波兰语（默认）、英语和中文，语言按 BCP 47 标签或 Accept-Language 头匹配。
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/zoeyai/facefinder/pkg/vision"
)

// 消息键
const (
	keyFound    = "found"
	keyNotFound = "not_found"
	keyFailed   = "failed"
)

// DefaultLanguage 默认语言
var DefaultLanguage = language.Polish

var supported = []language.Tag{
	language.Polish,
	language.English,
	language.Chinese,
}

var (
	cat     = newCatalog()
	matcher = language.NewMatcher(supported)
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(DefaultLanguage))
	set := func(tag language.Tag, key, msg string) {
		if err := b.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}

	set(language.Polish, keyFound, "Znaleziono twarz! (%d%% pewności)")
	set(language.Polish, keyNotFound, "Nie znaleziono pasującej twarzy na zdjęciu")
	set(language.Polish, keyFailed, "Wystąpił błąd podczas rozpoznawania twarzy")

	set(language.English, keyFound, "Face found! (%d%% confidence)")
	set(language.English, keyNotFound, "No matching face found in the image")
	set(language.English, keyFailed, "An error occurred during face recognition")

	set(language.Chinese, keyFound, "找到人脸！（置信度 %d%%）")
	set(language.Chinese, keyNotFound, "图片中未找到匹配的人脸")
	set(language.Chinese, keyFailed, "人脸识别时发生错误")

	return b
}

// Supported 返回支持的语言
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Match 把语言标签或 Accept-Language 头匹配到支持的语言
//
// 空字符串、无法解析或不支持的语言返回 DefaultLanguage。
func Match(lang string) language.Tag {
	if lang == "" {
		return DefaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	return supported[idx]
}

// Localizer 某一语言的消息生成器
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New 创建 Localizer，lang 按 Match 规则解析
func New(lang string) *Localizer {
	tag := Match(lang)
	return &Localizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// Tag 返回实际使用的语言
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// Found 找到匹配时的消息
func (l *Localizer) Found(confidence int) string {
	return l.printer.Sprintf(keyFound, confidence)
}

// NotFound 未找到匹配时的消息
func (l *Localizer) NotFound() string {
	return l.printer.Sprintf(keyNotFound)
}

// Failed 识别出错时的消息
func (l *Localizer) Failed() string {
	return l.printer.Sprintf(keyFailed)
}

// Result 按匹配结果选择消息
func (l *Localizer) Result(r vision.MatchResult) string {
	if r.Found {
		return l.Found(r.Confidence)
	}
	return l.NotFound()
}
