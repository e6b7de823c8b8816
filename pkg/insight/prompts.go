package insight

import (
	"fmt"
	"strings"

	"github.com/guwenlab/insight/internal/util"
	"github.com/guwenlab/insight/pkg/common"
)

// Prompt text follows the upstream chat API contract: a system prompt fixing
// the assistant role and a user prompt that pins the exact JSON shape, since
// completions are parsed by salvage rather than a schema-enforcing endpoint.

const classifySystemPrompt = "You are a classical-Chinese text classifier. " +
	"Decide whether the text is warfare, travelogue, biography, official, agriculture, crafts, or other."

func classifyUserPrompt(content string) string {
	return fmt.Sprintf(`Please return ONLY JSON:
{"category":"warfare|travelogue|biography|official|agriculture|crafts|other","confidence":0-1,"reasons":["reason1","reason2"]}
Text:
%s
`, content)
}

const annotateSystemPrompt = `You are a classical-Chinese IE assistant. Extract entities and relations.
Entities: PERSON, LOCATION, EVENT, ORGANIZATION, OBJECT, CUSTOM.
Relations: FAMILY, ALLY, SUPPORT, RIVAL, CONFLICT, MENTOR, INFLUENCE, LOCATION_OF, PART_OF, CAUSE, TEMPORAL, TRAVEL, CUSTOM.
Only emit entities with a locatable character span; drop any you cannot place.
Relations must reference entity labels from your own entity list, never invented ones.`

const annotateContentLimit = 3000

func annotateUserPrompt(content string) string {
	return fmt.Sprintf(`Output JSON:
{
  "entities":[{"label":"","category":"PERSON|LOCATION|EVENT|ORGANIZATION|OBJECT|CUSTOM","startOffset":0,"endOffset":0,"confidence":0.8}],
  "relations":[{"sourceLabel":"","targetLabel":"","relationType":"FAMILY|ALLY|SUPPORT|RIVAL|CONFLICT|MENTOR|INFLUENCE|LOCATION_OF|PART_OF|CAUSE|TEMPORAL|TRAVEL|CUSTOM","confidence":0.7,"description":""}],
  "sentences":[{"original":"","punctuated":"","summary":""}],
  "wordCloud":[{"label":"","weight":0.8}]
}
Text:
%s
`, util.TruncateRunes(content, annotateContentLimit))
}

const wordCloudSystemPrompt = "你是古文关键词分析专家。提取文本中最重要的关键词并给出权重。只返回JSON。"

func wordCloudUserPrompt(content string, entityLabels []string) string {
	return fmt.Sprintf(`文本：%s
已识别实体：%s

返回：{"wordCloud":[{"label":"关键词","weight":0.9}]}，最多12个关键词，权重0-1。
`, util.TruncateRunes(content, 1500), strings.Join(entityLabels, "、"))
}

const timelineSystemPrompt = "你是古文时间轴分析专家。从文本中提取关键事件并按时间排序。只返回JSON。"

func timelineUserPrompt(content string, category common.Genre) string {
	return fmt.Sprintf(`文本类型：%s
文本：%s

返回：{"timeline":[{"title":"事件","description":"描述","dateLabel":"时间","significance":5,"eventType":"travel","location":"地点","participants":["人物"],"impact":"影响"}]}
`, category.Label(), util.TruncateRunes(content, 2000))
}

const impactSystemPrompt = "你是历史分析专家。用50-80字分析事件的历史影响。只返回JSON。"

func impactUserPrompt(eventTitle string, category common.Genre) string {
	hint := "分析历史意义"
	switch category {
	case common.GenreBiography:
		hint = "分析对人物仕途或声望的影响"
	case common.GenreWarfare:
		hint = "分析战略意义和政治后果"
	case common.GenreTravelogue:
		hint = "分析文化地理意义"
	}

	return fmt.Sprintf(`事件：%s
%s

返回：{"impact":"50-80字分析"}
`, eventTitle, hint)
}

const battleSystemPrompt = "你是古代战争分析专家。将战役过程划分为若干阶段。只返回JSON。"

func battleUserPrompt(content string) string {
	return fmt.Sprintf(`文本：%s

返回：{"battles":[{"phase":"阶段名","description":"描述","intensity":5,"opponent":"对手"}]}，强度1-10。
`, util.TruncateRunes(content, 2000))
}

const officialSystemPrompt = "你是古代官职分析专家。分析文本中人物的官职、品级、部门。只返回JSON，不要额外解释。"

func officialUserPrompt(content string, persons []string) string {
	personList := "（文中人物）"
	if len(persons) > 0 {
		if len(persons) > 10 {
			persons = persons[:10]
		}
		personList = strings.Join(persons, "、")
	}

	return fmt.Sprintf(`文本：%s
人物：%s

JSON格式：
{"officials":[{"name":"姓名","position":"官职","level":"品级","department":"部门","superior":"上级（可选）","description":"描述"}]}

品级：一品/二品/.../九品
部门：六部/都察院/翰林院/地方政府/军事系统/中央机构
`, util.TruncateRunes(content, 1000), personList)
}

const processSystemPrompt = "你是古代农书与工艺分析专家。提取文本描述的工序步骤。只返回JSON。"

func processUserPrompt(content string, category common.Genre, entityLabels []string) string {
	return fmt.Sprintf(`文本类型：%s
文本：%s
相关实体：%s

返回：{"steps":[{"name":"步骤","description":"描述","sequence":1,"category":"类别","tools":["工具"],"materials":["材料"],"output":"产出","duration":1}]}
`, category.Label(), util.TruncateRunes(content, 2000), strings.Join(entityLabels, "、"))
}

const geoSystemPrompt = `你是地理解析助手。请将输入的古代地名/景点映射到现代可搜索的地名。
只输出严格的 JSON 数组（不要多余文字），每个元素格式：
{"entityId":"原始id","label":"原始名称","modernName":"现代完整地名（省市区+具体地点）"}

要求：
1. modernName 必须是现代中国地图上可搜索到的真实地名
2. 尽量精确到具体景点、山、河、建筑物等，而非仅城市名
3. 如果是著名景点，请给出完整地址，如"安徽省滁州市琅琊山风景区醉翁亭"
4. 如果是古代地名，映射到现代对应的地名，如"庐陵"→"江西省吉安市"
5. 若无法确定现代地名，跳过该实体

示例输出：
[{"entityId":"a1","label":"琅琊","modernName":"安徽省滁州市琅琊山风景区"},
 {"entityId":"a2","label":"醉翁亭","modernName":"安徽省滁州市琅琊山风景区醉翁亭"}]`

func geoUserPrompt(entities []common.Entity) string {
	var b strings.Builder
	b.WriteString("实体列表：\n")
	for _, ent := range entities {
		fmt.Fprintf(&b, "{\"entityId\":%q,\"label\":%q}\n", ent.ID, strings.TrimSpace(ent.Label))
	}
	return b.String()
}
