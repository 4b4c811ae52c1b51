package listamfetcher

import (
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"

	"listam-parser-service/internal/core/domain"

	"github.com/PuerkitoBio/goquery"
)

const (
	galleryContainerSelector = ".pv"
	galleryItemSelector      = ".pv > div"
)

// Атрибуты, в которых может лежать адрес картинки (ленивая загрузка)
var imageSourceAttrs = []string{"src", "data-src", "data-original"}

var (
	imageHostPattern   = regexp.MustCompile(`(?i)^(?:https?:)?//s\.list\.am/\S+\.(?:webp|jpe?g|png)(?:\?\S*)?$`)
	embeddedImageArray = regexp.MustCompile(`img\s*:\s*\[([^\]]*)\]`)
	quotedString       = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)'`)
	inlineWidth        = regexp.MustCompile(`(?i)(?:^|[;\s])width\s*:\s*(\d+(?:\.\d+)?)px`)
)

// ResolveImages возвращает упорядоченный набор картинок объявления.
// Встроенный массив img: [...] точнее геометрии, поэтому используется первым.
func ResolveImages(doc *goquery.Document) []domain.ImageRef {
	urls := ExtractEmbeddedImages(doc)
	if len(urls) == 0 {
		urls = InferImagesFromGeometry(doc)
	}

	images := make([]domain.ImageRef, 0, len(urls))
	for i, u := range urls {
		images = append(images, domain.ImageRef{Position: i, URL: u})
	}
	return images
}

// ExtractEmbeddedImages достает адреса картинок из массива img: [...] во встроенных скриптах
func ExtractEmbeddedImages(doc *goquery.Document) []string {
	var urls []string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := embeddedImageArray.FindStringSubmatch(s.Text())
		if m == nil {
			return true
		}
		for _, q := range quotedString.FindAllStringSubmatch(m[1], -1) {
			candidate := q[1]
			if candidate == "" {
				candidate = q[2]
			}
			candidate = strings.ReplaceAll(candidate, `\/`, "/")
			if imageHostPattern.MatchString(candidate) {
				urls = append(urls, normalizeImageURL(candidate))
			}
		}
		return len(urls) == 0
	})
	return urls
}

// InferImagesFromGeometry восстанавливает адреса галереи по первой картинке
// и отношению ширины контейнера к ширине одного элемента.
func InferImagesFromGeometry(doc *goquery.Document) []string {
	first, ok := firstListingImage(doc)
	if !ok {
		return nil
	}
	single := []string{normalizeImageURL(first)}

	containerWidth := styleWidth(doc.Find(galleryContainerSelector).First())
	itemWidth := styleWidth(doc.Find(galleryItemSelector).First())
	if containerWidth <= 0 || itemWidth <= 0 {
		return single
	}
	count := int(math.Floor(containerWidth / itemWidth))
	if count < 1 {
		return single
	}

	dir, file := path.Split(first)
	ext := path.Ext(file)
	stem, err := strconv.Atoi(strings.TrimSuffix(file, ext))
	if err != nil {
		return single
	}

	urls := make([]string, 0, count)
	for i := 0; i < count; i++ {
		urls = append(urls, normalizeImageURL(dir+strconv.Itoa(stem+i)+ext))
	}
	return urls
}

func firstListingImage(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		for _, attr := range imageSourceAttrs {
			if v, ok := img.Attr(attr); ok && imageHostPattern.MatchString(strings.TrimSpace(v)) {
				found = strings.TrimSpace(v)
				return false
			}
		}
		return true
	})
	return found, found != ""
}

func styleWidth(sel *goquery.Selection) float64 {
	style, ok := sel.Attr("style")
	if !ok {
		return 0
	}
	m := inlineWidth.FindStringSubmatch(style)
	if m == nil {
		return 0
	}
	w, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return w
}

// normalizeImageURL убирает ведущие "//" у протокол-относительных адресов
func normalizeImageURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return strings.TrimPrefix(u, "//")
	}
	return u
}
