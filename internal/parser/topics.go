package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

var (
	sectionAnchorPattern = regexp.MustCompile(`^section-(\d+)$`)
	moduleAnchorPattern  = regexp.MustCompile(`^module-(\d+)$`)
	modTypePrefix        = "modtype_"
)

// ParseTopics extracts the section list from a course page. The returned
// bool reports whether any section is missing its database id, which only
// appears in edit-mode markup; callers re-fetch with editing on and merge
// via MergeSectionIDs.
func ParseTopics(html, baseURL string) ([]models.Topic, bool, error) {
	doc, err := Document(html)
	if err != nil {
		return nil, false, fmt.Errorf("parse course page: %w", err)
	}

	var topics []models.Topic
	doc.Find("li.section.main").Each(func(i int, sec *goquery.Selection) {
		topic := models.Topic{
			SectionNumber: sectionNumber(sec, i),
			Visible:       !hasClassToken(sec, "hidden"),
			Summary:       text(sec.Find("div.content > div.summary").First()),
		}
		topic.Name = sectionName(sec, topic.SectionNumber)
		topic.SectionID = sectionDatabaseID(sec)
		topic.RestrictionSummary = text(sec.Find("div.content > div.availabilityinfo").First())
		sec.Find("li.activity").Each(func(_ int, item *goquery.Selection) {
			if act, ok := parseActivity(item, baseURL); ok {
				topic.Activities = append(topic.Activities, act)
			}
		})
		topics = append(topics, topic)
	})

	needsEdit := false
	for _, t := range topics {
		if !t.HasSectionID() {
			needsEdit = true
			break
		}
	}
	return topics, needsEdit, nil
}

// MergeSectionIDs copies database ids found in an edit-mode parse onto the
// plain parse, keyed by section number. Sections the edit page did not
// resolve keep a zero id and stay in the result.
func MergeSectionIDs(topics, edited []models.Topic) []models.Topic {
	ids := make(map[int]int, len(edited))
	for _, t := range edited {
		if t.HasSectionID() {
			ids[t.SectionNumber] = t.SectionID
		}
	}
	for i := range topics {
		if !topics[i].HasSectionID() {
			topics[i].SectionID = ids[topics[i].SectionNumber]
		}
	}
	return topics
}

func sectionNumber(sec *goquery.Selection, fallback int) int {
	if id, ok := sec.Attr("id"); ok {
		if m := sectionAnchorPattern.FindStringSubmatch(id); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}
	if raw, ok := sec.Attr("data-sectionnumber"); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return fallback
}

func sectionName(sec *goquery.Selection, number int) string {
	if name := text(sec.Find(".sectionname").First()); name != "" {
		return name
	}
	if label, ok := sec.Attr("aria-label"); ok {
		if name := collapse(label); name != "" {
			return name
		}
	}
	return fmt.Sprintf("Topic %d", number)
}

// sectionDatabaseID reads the id Moodle only renders while editing: the
// inplace-editable span on the section name, or failing that any
// editsection.php link that is not a delete action.
func sectionDatabaseID(sec *goquery.Selection) int {
	editable := sec.Find(`span.inplaceeditable[data-itemtype="sectionname"]`).First()
	if raw, ok := editable.Attr("data-itemid"); ok {
		if id, err := strconv.Atoi(raw); err == nil {
			return id
		}
	}
	id := 0
	sec.Find(`a[href*="editsection.php"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.Contains(href, "delete") {
			return true
		}
		if m := moduleIDPattern.FindStringSubmatch(href); m != nil {
			if parsed, err := strconv.Atoi(m[1]); err == nil {
				id = parsed
				return false
			}
		}
		return true
	})
	return id
}

func parseActivity(item *goquery.Selection, baseURL string) (models.Activity, bool) {
	act := models.Activity{Type: models.ActivityUnknown, Visible: true}

	if id, ok := item.Attr("id"); ok {
		if m := moduleAnchorPattern.FindStringSubmatch(id); m != nil {
			act.ModuleID, _ = strconv.Atoi(m[1])
		}
	}
	for _, cls := range classTokens(item) {
		if strings.HasPrefix(cls, modTypePrefix) {
			act.Type = models.ActivityTypeFromModClass(strings.TrimPrefix(cls, modTypePrefix))
			break
		}
	}

	link := item.Find("div.activityinstance a, a.aalink").First()
	if href, ok := link.Attr("href"); ok {
		act.URL = absoluteURL(baseURL, href)
		if act.ModuleID == 0 {
			act.ModuleID = moduleIDFromHref(href)
		}
	}
	act.Name = activityName(item, link)
	if item.Find(".dimmed, .dimmed_text").Length() > 0 || hasClassToken(item, "dimmed") {
		act.Visible = false
	}

	if act.Name == "" && act.ModuleID == 0 {
		return models.Activity{}, false
	}
	return act, true
}

// activityName returns the instance name with the screen-reader type suffix
// ("Quiz", "Assignment") removed. Labels have no instance name, so their
// rendered text stands in.
func activityName(item, link *goquery.Selection) string {
	instance := link.Find("span.instancename").First()
	if instance.Length() == 0 {
		instance = item.Find("span.instancename").First()
	}
	if instance.Length() > 0 {
		full := text(instance)
		if hide := text(instance.Find("span.accesshide")); hide != "" && strings.HasSuffix(full, hide) {
			full = collapse(strings.TrimSuffix(full, hide))
		}
		return full
	}
	return text(item.Find("div.contentwithoutlink").First())
}
