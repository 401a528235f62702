package extract

import (
	"strings"

	"github.com/rafael/cbenef/internal/models"
)

// typeRule maps trigger phrases to a benefit type. Rules are evaluated in
// order and the first phrase found wins; the per-state orderings reproduce
// how each document describes its benefits and must not be "improved".
type typeRule struct {
	triggers []string
	benefit  models.BenefitType
}

func classifyBenefitType(text string, rules []typeRule) models.BenefitType {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lower, trigger) {
				return rule.benefit
			}
		}
	}
	return models.BenefitOther
}

var scTypeRules = []typeRule{
	{[]string{"isenção"}, models.BenefitExemption},
	{[]string{"não incidência"}, models.BenefitNonIncidence},
	{[]string{"redução"}, models.BenefitBaseReduction},
	{[]string{"diferimento"}, models.BenefitDeferral},
	{[]string{"suspensão"}, models.BenefitSuspension},
	{[]string{"crédito"}, models.BenefitGrantedCredit},
	{[]string{"alíquota zero"}, models.BenefitZeroRate},
}

var esTypeRules = []typeRule{
	{[]string{"isenção", "isenta"}, models.BenefitExemption},
	{[]string{"não incidência", "não tributada"}, models.BenefitNonIncidence},
	{[]string{"redução", "reduz"}, models.BenefitBaseReduction},
	{[]string{"diferimento", "diferir"}, models.BenefitDeferral},
	{[]string{"suspensão", "suspend"}, models.BenefitSuspension},
	{[]string{"crédito"}, models.BenefitGrantedCredit},
	{[]string{"alíquota zero", "zero"}, models.BenefitZeroRate},
}

var rjTypeRules = []typeRule{
	{[]string{"isenção", "isent"}, models.BenefitExemption},
	{[]string{"não incidência", "não tributad"}, models.BenefitNonIncidence},
	{[]string{"redução", "reduz"}, models.BenefitBaseReduction},
	{[]string{"diferimento", "diferir"}, models.BenefitDeferral},
	{[]string{"suspensão", "suspend"}, models.BenefitSuspension},
	{[]string{"crédito"}, models.BenefitGrantedCredit},
	{[]string{"alíquota zero", "zero"}, models.BenefitZeroRate},
	{[]string{"ampliação"}, models.BenefitOther},
	{[]string{"transferência"}, models.BenefitGrantedCredit},
	{[]string{"tributação"}, models.BenefitOther},
}

var prTypeRules = []typeRule{
	{[]string{"isenção", "isent"}, models.BenefitExemption},
	{[]string{"não incidência", "não tributad"}, models.BenefitNonIncidence},
	{[]string{"redução", "reduz"}, models.BenefitBaseReduction},
	{[]string{"diferimento", "diferir"}, models.BenefitDeferral},
	{[]string{"suspensão", "suspend"}, models.BenefitSuspension},
	{[]string{"crédito"}, models.BenefitGrantedCredit},
	{[]string{"alíquota zero", "zero"}, models.BenefitZeroRate},
	{[]string{"substituição"}, models.BenefitOther},
	{[]string{"monofásica"}, models.BenefitOther},
}
