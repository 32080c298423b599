package agronomy

import (
	"strings"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// HealthyLabel is reported when the classifier finds no disease
const HealthyLabel = "Healthy"

var diseaseCatalog = []domain.DiseaseInfo{
	{
		Name:       "Rice Blast",
		Crop:       "rice",
		Pathogen:   "Magnaporthe oryzae",
		Symptoms:   []string{"diamond shaped lesions with grey centres", "neck rot at panicle base"},
		Treatments: []string{"spray tricyclazole 75 WP at 0.6 g/l", "drain field for 3-4 days"},
		Prevention: []string{"use resistant varieties", "avoid excess nitrogen"},
	},
	{
		Name:       "Brown Spot",
		Crop:       "rice",
		Pathogen:   "Bipolaris oryzae",
		Symptoms:   []string{"oval brown spots on leaves", "discoloured grains"},
		Treatments: []string{"spray mancozeb 2.5 g/l", "apply potash"},
		Prevention: []string{"treat seed with carbendazim", "maintain balanced fertility"},
	},
	{
		Name:       "Leaf Rust",
		Crop:       "wheat",
		Pathogen:   "Puccinia triticina",
		Symptoms:   []string{"orange pustules on leaf blades", "early leaf senescence"},
		Treatments: []string{"spray propiconazole 25 EC at 1 ml/l"},
		Prevention: []string{"sow rust resistant varieties", "avoid late sowing"},
	},
	{
		Name:       "Loose Smut",
		Crop:       "wheat",
		Pathogen:   "Ustilago tritici",
		Symptoms:   []string{"black powdery ears", "spikelets replaced by spores"},
		Treatments: []string{"rogue out infected plants"},
		Prevention: []string{"seed treatment with carboxin", "use certified seed"},
	},
	{
		Name:       "Northern Leaf Blight",
		Crop:       "maize",
		Pathogen:   "Exserohilum turcicum",
		Symptoms:   []string{"long elliptical grey-green lesions"},
		Treatments: []string{"spray mancozeb 2.5 g/l at first symptoms"},
		Prevention: []string{"rotate with legumes", "bury crop residue"},
	},
	{
		Name:       "Late Blight",
		Crop:       "tomato",
		Pathogen:   "Phytophthora infestans",
		Symptoms:   []string{"water soaked leaf lesions", "white mould under leaves", "brown fruit rot"},
		Treatments: []string{"spray metalaxyl + mancozeb 2 g/l", "remove infected plants"},
		Prevention: []string{"avoid overhead irrigation", "stake plants for airflow"},
	},
	{
		Name:       "Early Blight",
		Crop:       "tomato",
		Pathogen:   "Alternaria solani",
		Symptoms:   []string{"concentric ring spots on older leaves", "yellowing around lesions"},
		Treatments: []string{"spray chlorothalonil 2 g/l", "prune lower leaves"},
		Prevention: []string{"mulch soil surface", "three year rotation"},
	},
	{
		Name:       "Late Blight",
		Crop:       "potato",
		Pathogen:   "Phytophthora infestans",
		Symptoms:   []string{"dark lesions on leaves and stems", "tuber rot"},
		Treatments: []string{"spray cymoxanil + mancozeb 3 g/l"},
		Prevention: []string{"plant certified seed tubers", "earth up rows"},
	},
	{
		Name:       "Bacterial Blight",
		Crop:       "cotton",
		Pathogen:   "Xanthomonas citri pv. malvacearum",
		Symptoms:   []string{"angular water soaked leaf spots", "black arm on stems"},
		Treatments: []string{"spray copper oxychloride 3 g/l with streptocycline"},
		Prevention: []string{"delinted acid treated seed", "remove volunteer plants"},
	},
	{
		Name:       "Red Rot",
		Crop:       "sugarcane",
		Pathogen:   "Colletotrichum falcatum",
		Symptoms:   []string{"reddened internal tissue with white bands", "drying of top leaves"},
		Treatments: []string{"uproot and burn affected clumps"},
		Prevention: []string{"use disease free setts", "hot water treat setts"},
	},
}

// Diseases returns the knowledge base, filtered to a crop when crop is non-empty
func Diseases(crop string) []domain.DiseaseInfo {
	crop = strings.ToLower(strings.TrimSpace(crop))
	out := make([]domain.DiseaseInfo, 0, len(diseaseCatalog))
	for _, d := range diseaseCatalog {
		if crop == "" || d.Crop == crop {
			out = append(out, d)
		}
	}
	return out
}

// Diagnosis is the classifier's verdict for an image
type Diagnosis struct {
	Disease    string
	Confidence float64
	Severity   domain.Severity
	Symptoms   []string
	Treatments []string
}

// ClassifyImage maps an image digest onto the crop's catalogue entries. It
// is a stand-in for a trained model: the same image always yields the same
// diagnosis. Crops without catalogue entries are reported healthy.
func ClassifyImage(crop string, digest []byte) Diagnosis {
	candidates := Diseases(crop)
	if len(digest) < 3 || len(candidates) == 0 {
		return Diagnosis{
			Disease:    HealthyLabel,
			Confidence: 0.5,
			Severity:   domain.SeverityNone,
			Symptoms:   []string{},
			Treatments: []string{},
		}
	}

	// one extra slot for a healthy verdict
	idx := int(digest[0]) % (len(candidates) + 1)
	confidence := round2(0.6 + 0.35*float64(digest[1])/255)
	if idx == len(candidates) {
		return Diagnosis{
			Disease:    HealthyLabel,
			Confidence: confidence,
			Severity:   domain.SeverityNone,
			Symptoms:   []string{},
			Treatments: []string{},
		}
	}

	severities := []domain.Severity{domain.SeverityLow, domain.SeverityModerate, domain.SeverityHigh, domain.SeverityCritical}
	d := candidates[idx]
	return Diagnosis{
		Disease:    d.Name,
		Confidence: confidence,
		Severity:   severities[int(digest[2])%len(severities)],
		Symptoms:   d.Symptoms,
		Treatments: d.Treatments,
	}
}
